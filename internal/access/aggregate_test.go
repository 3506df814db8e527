package access

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civita/urbanaccess/internal/geo"
)

// randomUnits scatters n pharmacies around central Milan with varied
// scales and weights, deterministically seeded.
func randomUnits(t *testing.T, n int, seed int64) []*Unit {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	units := make([]*Unit, n)
	for i := range units {
		pos := geo.Position{
			Lat: 45.40 + rng.Float64()*0.12,
			Lon: 9.10 + rng.Float64()*0.18,
		}
		scale := 0.3 + rng.Float64()*1.5
		units[i] = mustUnit(t, Pharmacy, "", pos, scale, map[AgeGroup]float64{
			Newborn: rng.Float64(),
			Over65:  rng.Float64(),
		})
	}
	return units
}

func randomPositions(n int, seed int64) []geo.Position {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geo.Position, n)
	for i := range pts {
		pts[i] = geo.Position{
			Lat: 45.40 + rng.Float64()*0.12,
			Lon: 9.10 + rng.Float64()*0.18,
		}
	}
	return pts
}

func TestEvaluateAtMatchesDense(t *testing.T) {
	// The pruned evaluation must agree with the dense reference within
	// floating-point tolerance; this is the property that justifies the
	// threshold optimization.
	units := randomUnits(t, 60, 1)
	c, err := NewCollection(Pharmacy, units, DefaultEpsilon)
	require.NoError(t, err)

	points := randomPositions(200, 2)
	agg := NewAggregator(1)

	for _, g := range []AgeGroup{Newborn, Over65} {
		pruned := agg.EvaluateAt(c, g, points)
		dense := agg.EvaluateDense(c, g, points)
		require.Len(t, pruned, len(dense))
		for i := range pruned {
			// Truncation may drop contributions up to eps per unit;
			// bound the relative error accordingly.
			tol := float64(len(units))*DefaultEpsilon + 1e-9
			assert.InDelta(t, dense[i], pruned[i], tol)
		}
	}
}

func TestEvaluateAtOrderIndependent(t *testing.T) {
	units := randomUnits(t, 30, 3)
	points := randomPositions(50, 4)

	c1, err := NewCollection(Pharmacy, units, DefaultEpsilon)
	require.NoError(t, err)
	agg := NewAggregator(1)
	forward := agg.EvaluateAt(c1, Newborn, points)

	reversed := make([]*Unit, len(units))
	for i, u := range units {
		reversed[len(units)-1-i] = u
	}
	c2, err := NewCollection(Pharmacy, reversed, DefaultEpsilon)
	require.NoError(t, err)
	backward := agg.EvaluateAt(c2, Newborn, points)

	for i := range forward {
		assert.InDelta(t, forward[i], backward[i], 1e-9*(1+forward[i]),
			"summation order must not matter beyond rounding")
	}
}

func TestEvaluateAtZeroWeightGroup(t *testing.T) {
	pos := geo.Position{Lat: 45.46, Lon: 9.19}
	u := mustUnit(t, School, "s", pos, 1.0, map[AgeGroup]float64{ChildPrimary: 1, Kinder: 0})
	c, err := NewCollection(School, []*Unit{u}, DefaultEpsilon)
	require.NoError(t, err)

	agg := NewAggregator(1)
	values := agg.EvaluateAt(c, Kinder, []geo.Position{pos, {Lat: 45.47, Lon: 9.20}})
	for _, v := range values {
		assert.Zero(t, v, "zero-weight cohorts contribute exactly 0")
	}
}

func TestEvaluateAtBeyondThresholdIsExactlyZero(t *testing.T) {
	center := geo.Position{Lat: 45.46, Lon: 9.19}
	u := mustUnit(t, Pharmacy, "p", center, 1.0, map[AgeGroup]float64{Over65: 1})
	c, err := NewCollection(Pharmacy, []*Unit{u}, DefaultEpsilon)
	require.NoError(t, err)

	// ~2.63km threshold at scale=1, eps=1e-3; 0.1 degrees of latitude
	// is ~11km away.
	far := geo.Position{Lat: 45.56, Lon: 9.19}
	require.Greater(t, center.DistanceKM(far), u.Threshold(Over65))

	agg := NewAggregator(1)
	values := agg.EvaluateAt(c, Over65, []geo.Position{far})
	assert.Zero(t, values[0], "beyond threshold yields 0 exactly, not a small float")
}

func TestEvaluateSurface(t *testing.T) {
	center := geo.Position{Lat: 45.46, Lon: 9.19}
	u := mustUnit(t, Pharmacy, "p", center, 1.0, map[AgeGroup]float64{Over65: 1, Newborn: 0.5})
	c, err := NewCollection(Pharmacy, []*Unit{u}, DefaultEpsilon)
	require.NoError(t, err)

	points := []geo.Position{center, {Lat: 45.465, Lon: 9.19}}
	agg := NewAggregator(4)
	surface, err := agg.Evaluate(context.Background(), c, points)
	require.NoError(t, err)

	assert.Equal(t, Pharmacy, surface.Service)
	require.Contains(t, surface.Values, Over65)
	require.Contains(t, surface.Values, Newborn)
	assert.NotContains(t, surface.Values, ChildPrimary, "unserved cohorts are absent")

	assert.InDelta(t, 1.0, surface.Values[Over65][0], 1e-9, "peak at the unit's location")
	assert.InDelta(t, 0.5, surface.Values[Newborn][0], 1e-9)
	assert.Greater(t, surface.Values[Over65][0], surface.Values[Over65][1], "decays with distance")
}

func TestEvaluateParallelMatchesSerial(t *testing.T) {
	units := randomUnits(t, 40, 5)
	c, err := NewCollection(Pharmacy, units, DefaultEpsilon)
	require.NoError(t, err)
	points := randomPositions(80, 6)

	serial, err := NewAggregator(1).Evaluate(context.Background(), c, points)
	require.NoError(t, err)
	parallel, err := NewAggregator(8).Evaluate(context.Background(), c, points)
	require.NoError(t, err)

	assert.Equal(t, serial.Values, parallel.Values)
}
