// Package kpi aggregates accessibility value surfaces into zone-level
// indicators.
package kpi

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/grid"
)

// Norm selects the zone aggregation statistic.
type Norm int

const (
	// NormMean averages point values over each zone.
	NormMean Norm = iota
	// NormSum totals point values over each zone.
	NormSum
)

func (n Norm) String() string {
	if n == NormSum {
		return "sum"
	}
	return "mean"
}

// ParseNorm resolves a norm name.
func ParseNorm(s string) (Norm, error) {
	switch s {
	case "mean":
		return NormMean, nil
	case "sum":
		return NormSum, nil
	}
	return 0, eris.Errorf("kpi: unknown norm %q", s)
}

// Value is one zone indicator. A zone with no assigned grid points is
// a legitimate geographic configuration, reported as undefined rather
// than conflated with genuine zero accessibility.
type Value struct {
	Defined bool    `json:"defined"`
	V       float64 `json:"value"`
}

// ZoneKPI maps zone → service → age group → indicator.
type ZoneKPI map[string]map[access.ServiceType]map[access.AgeGroup]Value

// Summarizer accumulates zone indicators across service surfaces.
// Every zone passed at construction appears in the result, defined or
// not.
type Summarizer struct {
	norm    Norm
	zoneIDs []string
	kpi     ZoneKPI
}

// NewSummarizer builds a summarizer over the full zone set.
func NewSummarizer(norm Norm, zoneIDs []string) *Summarizer {
	kpi := make(ZoneKPI, len(zoneIDs))
	for _, id := range zoneIDs {
		kpi[id] = make(map[access.ServiceType]map[access.AgeGroup]Value)
	}
	return &Summarizer{norm: norm, zoneIDs: zoneIDs, kpi: kpi}
}

// Add folds one service surface, evaluated over the grid's in-boundary
// points, into the per-zone indicators. The surface's value slices must
// be aligned with points; points without a zone are excluded.
func (s *Summarizer) Add(surface *access.Surface, points []grid.Point) error {
	for g, values := range surface.Values {
		if len(values) != len(points) {
			return eris.Errorf("kpi: surface %s/%s has %d values for %d points",
				surface.Service, g, len(values), len(points))
		}

		sums := make(map[string]float64, len(s.zoneIDs))
		counts := make(map[string]int, len(s.zoneIDs))
		for i, pt := range points {
			if pt.ZoneID == "" {
				continue
			}
			sums[pt.ZoneID] += values[i]
			counts[pt.ZoneID]++
		}

		for _, id := range s.zoneIDs {
			byService := s.kpi[id]
			byGroup, ok := byService[surface.Service]
			if !ok {
				byGroup = make(map[access.AgeGroup]Value)
				byService[surface.Service] = byGroup
			}

			n := counts[id]
			if n == 0 {
				zap.L().Warn("kpi: zone has no grid points",
					zap.String("zone", id),
					zap.String("service", surface.Service.String()),
				)
				byGroup[g] = Value{}
				continue
			}

			v := sums[id]
			if s.norm == NormMean {
				v /= float64(n)
			}
			byGroup[g] = Value{Defined: true, V: v}
		}
	}
	return nil
}

// Result returns the accumulated indicators.
func (s *Summarizer) Result() ZoneKPI { return s.kpi }
