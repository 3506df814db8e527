package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civita/urbanaccess/internal/geo"
)

func mustUnit(t *testing.T, st ServiceType, name string, pos geo.Position, scale float64, diffusion map[AgeGroup]float64) *Unit {
	t.Helper()
	u, err := NewUnit(st, name, pos, scale, diffusion, nil)
	require.NoError(t, err)
	return u
}

func TestNewUnitValidation(t *testing.T) {
	pos := geo.Position{Lat: 45.46, Lon: 9.19}

	_, err := NewUnit(Pharmacy, "f1", pos, 0, map[AgeGroup]float64{Newborn: 1}, nil)
	assert.Error(t, err, "zero scale is rejected")

	_, err = NewUnit(Pharmacy, "f1", pos, -0.5, map[AgeGroup]float64{Newborn: 1}, nil)
	assert.Error(t, err, "negative scale is rejected")

	_, err = NewUnit(Pharmacy, "f1", pos, 0.5, map[AgeGroup]float64{Newborn: -1}, nil)
	assert.Error(t, err, "negative weight is rejected")

	u, err := NewUnit(Pharmacy, "f1", pos, 0.5, map[AgeGroup]float64{Newborn: 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, u.Weight(Newborn), 1e-12)
	assert.Zero(t, u.Weight(Over65), "absent groups imply zero relevance")
}

func TestCollectionSharedThresholds(t *testing.T) {
	pos := geo.Position{Lat: 45.46, Lon: 9.19}
	diffusion := map[AgeGroup]float64{ChildPrimary: 1, ChildMid: 0.5}

	u1 := mustUnit(t, Pharmacy, "a", pos, 0.8, diffusion)
	u2 := mustUnit(t, Pharmacy, "b", pos, 0.8, diffusion)
	u3 := mustUnit(t, Pharmacy, "c", pos, 1.6, diffusion) // different scale

	c, err := NewCollection(Pharmacy, []*Unit{u1, u2, u3}, DefaultEpsilon)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Profiles(), "two distinct kernel profiles")
	assert.InDelta(t, u1.Threshold(ChildPrimary), u2.Threshold(ChildPrimary), 1e-15,
		"same profile shares one threshold")
	assert.InDelta(t, 2*u1.Threshold(ChildPrimary), u3.Threshold(ChildPrimary), 1e-12,
		"different scale gets its own threshold")
	assert.Greater(t, u1.Threshold(ChildMid), 0.0)
}

func TestCollectionThresholdRoundTrip(t *testing.T) {
	// Rebuilding a collection from the same raw units yields identical
	// cached thresholds.
	build := func() (*Unit, *Unit) {
		pos := geo.Position{Lat: 45.46, Lon: 9.19}
		u1 := mustUnit(t, Library, "b1", pos, 1.2, map[AgeGroup]float64{ChildPrimary: 1})
		u2 := mustUnit(t, Library, "b2", pos, 0.7, map[AgeGroup]float64{ChildMid: 0.4})
		_, err := NewCollection(Library, []*Unit{u1, u2}, DefaultEpsilon)
		require.NoError(t, err)
		return u1, u2
	}

	a1, a2 := build()
	b1, b2 := build()

	for _, g := range AllAgeGroups() {
		assert.Equal(t, a1.Threshold(g), b1.Threshold(g))
		assert.Equal(t, a2.Threshold(g), b2.Threshold(g))
	}
}

func TestCollectionUnitsFor(t *testing.T) {
	pos := geo.Position{Lat: 45.46, Lon: 9.19}
	school := mustUnit(t, School, "primary", pos, 1.0, map[AgeGroup]float64{ChildPrimary: 1})
	high := mustUnit(t, School, "high", pos, 1.0, map[AgeGroup]float64{ChildHigh: 1})

	c, err := NewCollection(School, []*Unit{school, high}, DefaultEpsilon)
	require.NoError(t, err)

	primary := c.UnitsFor(ChildPrimary)
	require.Len(t, primary, 1)
	assert.Equal(t, "primary", primary[0].Name)

	assert.Empty(t, c.UnitsFor(Over65), "no unit serves over65")
	assert.ElementsMatch(t, []AgeGroup{ChildPrimary, ChildHigh}, c.AgeGroups())
}

func TestCollectionRejectsBadInput(t *testing.T) {
	pos := geo.Position{Lat: 45.46, Lon: 9.19}
	u := mustUnit(t, School, "s", pos, 1.0, map[AgeGroup]float64{ChildPrimary: 1})

	_, err := NewCollection(School, []*Unit{u}, 0)
	assert.Error(t, err, "epsilon must be positive")

	_, err = NewCollection(School, []*Unit{u}, 1.5)
	assert.Error(t, err, "epsilon must be below 1")

	_, err = NewCollection(Library, []*Unit{u}, DefaultEpsilon)
	assert.Error(t, err, "unit type must match the collection")
}
