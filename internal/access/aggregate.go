package access

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civita/urbanaccess/internal/geo"
)

// Surface is the computed accessibility value at a set of query points,
// per age group, for one service type. Value slices are index-aligned
// with the query point slice the surface was evaluated over.
type Surface struct {
	Service ServiceType
	Values  map[AgeGroup][]float64
}

// Aggregator sums per-unit kernel contributions over query points.
type Aggregator struct {
	concurrency int
}

// NewAggregator builds an aggregator evaluating up to concurrency age
// groups in parallel; values below 1 mean serial evaluation.
func NewAggregator(concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{concurrency: concurrency}
}

// EvaluateAt returns, for each query point, the summed contribution of
// every unit serving the cohort. Points beyond a unit's cached
// threshold are skipped without evaluating the kernel, which is what
// keeps city-scale evaluation tractable. Points out of reach of every
// unit get exactly zero.
func (a *Aggregator) EvaluateAt(c *Collection, g AgeGroup, points []geo.Position) []float64 {
	values := make([]float64, len(points))
	for _, u := range c.UnitsFor(g) {
		threshold := u.Threshold(g)
		for i, p := range points {
			d := u.Position.DistanceKM(p)
			if d > threshold {
				continue
			}
			values[i] += Contribution(d, u.Scale, u.Weight(g))
		}
	}
	return values
}

// EvaluateDense is the unpruned reference evaluation: every unit
// against every point, no threshold skipping. It exists to validate
// the pruned path; production callers use EvaluateAt.
func (a *Aggregator) EvaluateDense(c *Collection, g AgeGroup, points []geo.Position) []float64 {
	values := make([]float64, len(points))
	for _, u := range c.UnitsFor(g) {
		for i, p := range points {
			values[i] += u.ContributionAt(g, p)
		}
	}
	return values
}

// Evaluate computes the full value surface for a collection: one value
// slice per cohort served by at least one unit. Age groups are
// independent, so they are evaluated in parallel; units and surfaces
// are read-only and append-only respectively during the pass.
func (a *Aggregator) Evaluate(ctx context.Context, c *Collection, points []geo.Position) (*Surface, error) {
	groups := c.AgeGroups()
	results := make([][]float64, len(groups))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i, g := range groups {
		eg.Go(func() error {
			results[i] = a.EvaluateAt(c, g, points)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	surface := &Surface{
		Service: c.Type(),
		Values:  make(map[AgeGroup][]float64, len(groups)),
	}
	for i, g := range groups {
		surface.Values[g] = results[i]
	}

	zap.L().Debug("access: surface evaluated",
		zap.String("service", c.Type().String()),
		zap.Int("age_groups", len(groups)),
		zap.Int("points", len(points)),
		zap.Int("units", len(c.Units())),
	)
	return surface, nil
}
