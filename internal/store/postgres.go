package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/db"
	"github.com/civita/urbanaccess/internal/kpi"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, city, status, started_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"complete_run": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"fail_run":     `UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT id, city, status, error, started_at, updated_at FROM runs WHERE id = $1`,
	"get_kpis":     `SELECT zone_id, service, age_group, defined, value FROM zone_kpis WHERE run_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	city       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS zone_kpis (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	zone_id   TEXT NOT NULL,
	service   TEXT NOT NULL,
	age_group TEXT NOT NULL,
	defined   BOOLEAN NOT NULL,
	value     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, zone_id, service, age_group)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city);
CREATE INDEX IF NOT EXISTS idx_zone_kpis_run_id ON zone_kpis(run_id);
CREATE INDEX IF NOT EXISTS idx_zone_kpis_run_service ON zone_kpis(run_id, service);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, city string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, city, status, started_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, city, string(RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{
		ID:        id,
		City:      city,
		Status:    RunStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(RunStatusFailed), cause.Error(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, city, status, error, started_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r Run
	var errMsg *string
	err := row.Scan(&r.ID, &r.City, &r.Status, &errMsg, &r.StartedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, city, status, error, started_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	if filter.City != "" {
		args = append(args, filter.City)
		query += ` AND city = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var errMsg *string
		if err := rows.Scan(&r.ID, &r.City, &r.Status, &errMsg, &r.StartedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveZoneKPIs bulk-upserts the run's indicators; re-saving a run
// replaces its previous values.
func (s *PostgresStore) SaveZoneKPIs(ctx context.Context, runID string, zk kpi.ZoneKPI) error {
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "zone_kpis",
		Columns:      zoneKPIColumns,
		ConflictKeys: []string{"run_id", "zone_id", "service", "age_group"},
	}, kpiRows(runID, zk))
	return eris.Wrapf(err, "postgres: save kpis for run %s", runID)
}

func (s *PostgresStore) GetZoneKPIs(ctx context.Context, runID string) (kpi.ZoneKPI, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT zone_id, service, age_group, defined, value FROM zone_kpis WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get kpis for run %s", runID)
	}
	defer rows.Close()

	zk := make(kpi.ZoneKPI)
	for rows.Next() {
		var zoneID, service, ageGroup string
		var defined bool
		var value float64
		if err := rows.Scan(&zoneID, &service, &ageGroup, &defined, &value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan zone kpi")
		}
		if err := kpiFromRow(zk, zoneID, service, ageGroup, defined, value); err != nil {
			return nil, err
		}
	}
	return zk, eris.Wrap(rows.Err(), "postgres: get kpis iterate")
}

