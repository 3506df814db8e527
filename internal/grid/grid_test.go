package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/civita/urbanaccess/internal/geo"
	"github.com/civita/urbanaccess/internal/zone"
)

func squareMP(t *testing.T, minLon, minLat, maxLon, maxLat float64) *geom.MultiPolygon {
	t.Helper()
	mp := geom.NewMultiPolygon(geom.XY)
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		minLon, minLat,
		maxLon, minLat,
		maxLon, maxLat,
		minLon, maxLat,
		minLon, minLat,
	}, []int{10})
	require.NoError(t, mp.Push(poly))
	return mp
}

// squareCityLayer returns a single-zone city roughly 10km x 10km around
// 45N. At that latitude 0.09 degrees of latitude and ~0.1273 degrees of
// longitude are both close to 10km.
func squareCityLayer(t *testing.T) *zone.Layer {
	t.Helper()
	return zone.NewLayer([]zone.Zone{
		{ID: "1", Name: "Centro", Geometry: squareMP(t, 9.0, 45.0, 9.1273, 45.09)},
	})
}

func TestBuildSquareCity(t *testing.T) {
	g, err := Build(squareCityLayer(t), 1.0)
	require.NoError(t, err)

	nLon, nLat := g.Shape()
	assert.Equal(t, 11, nLon, "10km span at 1km step gives 11 columns")
	assert.Equal(t, 11, nLat)
	assert.Len(t, g.Points(), nLon*nLat)

	// A single square zone covering the whole bounding box: every
	// lattice point is in-boundary and assigned to it.
	active := g.Active()
	assert.Len(t, active, nLon*nLat)
	for _, pt := range active {
		assert.True(t, pt.InBoundary)
		assert.Equal(t, "1", pt.ZoneID)
	}
}

func TestBuildDeterministic(t *testing.T) {
	layer := squareCityLayer(t)

	g1, err := Build(layer, 1.0)
	require.NoError(t, err)
	g2, err := Build(layer, 1.0)
	require.NoError(t, err)

	assert.Equal(t, g1.Points(), g2.Points())
	assert.Equal(t, g1.Active(), g2.Active())
}

func TestBuildTwoZones(t *testing.T) {
	layer := zone.NewLayer([]zone.Zone{
		{ID: "1", Geometry: squareMP(t, 9.0, 45.0, 9.0636, 45.09)},
		{ID: "2", Geometry: squareMP(t, 9.0636, 45.0, 9.1273, 45.09)},
	})

	g, err := Build(layer, 1.0)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, pt := range g.Active() {
		seen[pt.ZoneID]++
	}
	assert.Contains(t, seen, "1")
	assert.Contains(t, seen, "2")
}

func TestBuildStepLargerThanCity(t *testing.T) {
	// Step exceeding the axis extent still yields one point per axis.
	g, err := Build(squareCityLayer(t), 50.0)
	require.NoError(t, err)

	nLon, nLat := g.Shape()
	assert.Equal(t, 1, nLon)
	assert.Equal(t, 1, nLat)
	assert.Len(t, g.Points(), 1)
}

func TestBuildInvalidStep(t *testing.T) {
	_, err := Build(squareCityLayer(t), 0)
	assert.Error(t, err)

	_, err = Build(squareCityLayer(t), -1.5)
	assert.Error(t, err)
}

func TestBuildNoZoneInvariant(t *testing.T) {
	// Explicit boundary wider than the zone: in-boundary points west of
	// the zone match no polygon, which must abort the build.
	layer := zone.NewLayer([]zone.Zone{
		{ID: "1", Geometry: squareMP(t, 9.06, 45.0, 9.1273, 45.09)},
	})
	layer.SetBoundary(squareMP(t, 9.0, 45.0, 9.1273, 45.09))

	_, err := Build(layer, 1.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoZone)
}

func TestBuildOutOfBoundaryPoints(t *testing.T) {
	// An L-shaped city: the bounding box corner outside the zones must
	// be marked out of boundary, not assigned.
	layer := zone.NewLayer([]zone.Zone{
		{ID: "1", Geometry: squareMP(t, 9.0, 45.0, 9.0636, 45.09)},
		{ID: "2", Geometry: squareMP(t, 9.0636, 45.0, 9.1273, 45.045)},
	})

	g, err := Build(layer, 1.0)
	require.NoError(t, err)

	assert.Less(t, len(g.Active()), len(g.Points()))
	for _, pt := range g.Points() {
		if !pt.InBoundary {
			assert.Empty(t, pt.ZoneID)
		}
	}
}

func TestActivePositionsAlignment(t *testing.T) {
	g, err := Build(squareCityLayer(t), 2.0)
	require.NoError(t, err)

	active := g.Active()
	pos := g.ActivePositions()
	require.Len(t, pos, len(active))
	for i := range active {
		assert.Equal(t, active[i].Pos, pos[i])
	}
	assert.NotEqual(t, geo.Position{}, pos[0])
}
