// Package store persists computation runs and their zone indicators so
// the serving layer and later analyses can read results without
// recomputing a city.
package store

import (
	"context"
	"time"

	"github.com/civita/urbanaccess/internal/kpi"
)

// RunStatus tracks a computation run's lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one end-to-end accessibility computation for a city.
type Run struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	City   string    `json:"city,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for accessibility runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, city string) (*Run, error)
	CompleteRun(ctx context.Context, runID string) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Zone indicators
	SaveZoneKPIs(ctx context.Context, runID string, zk kpi.ZoneKPI) error
	GetZoneKPIs(ctx context.Context, runID string) (kpi.ZoneKPI, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
