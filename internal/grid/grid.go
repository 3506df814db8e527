// Package grid builds the discretized evaluation lattice over a city
// and assigns every lattice point to an administrative zone.
package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/geo"
	"github.com/civita/urbanaccess/internal/zone"
)

// ErrNoZone reports an in-boundary point that no zone polygon contains:
// the zones do not fully tile the declared boundary.
var ErrNoZone = eris.New("grid: point inside boundary matched no zone")

// Point is one lattice point. ZoneID is empty for points outside the
// city boundary.
type Point struct {
	Pos        geo.Position
	ZoneID     string
	InBoundary bool
}

// Grid is the evaluation lattice. Points are stored in longitude-major
// order: all latitudes for the first longitude, then the next.
type Grid struct {
	stepKM float64
	nLon   int
	nLat   int
	points []Point
	active []int
}

// Build constructs the lattice covering the layer's bounding box with
// the given linear step in kilometers and classifies every point.
//
// Axis lengths are measured as great-circle distances, so the two axes
// are converted to point counts independently; each axis always gets at
// least one point. When zone polygons overlap, a point is assigned to
// the lowest zone ID containing it (the layer scans in ascending-ID
// order).
func Build(layer *zone.Layer, stepKM float64) (*Grid, error) {
	if stepKM <= 0 {
		return nil, eris.Errorf("grid: step must be positive, got %g", stepKM)
	}

	box := layer.Bounds()
	nLon := int(math.Floor(box.WidthKM()/stepKM)) + 1
	nLat := int(math.Floor(box.HeightKM()/stepKM)) + 1

	lons := linspace(box.MinLon, box.MaxLon, nLon)
	lats := linspace(box.MinLat, box.MaxLat, nLat)

	g := &Grid{
		stepKM: stepKM,
		nLon:   nLon,
		nLat:   nLat,
		points: make([]Point, 0, nLon*nLat),
	}

	for _, lon := range lons {
		for _, lat := range lats {
			pos := geo.Position{Lat: lat, Lon: lon}
			pt := Point{Pos: pos}

			if layer.InBoundary(pos) {
				id, ok := layer.FindZone(pos)
				if !ok {
					return nil, eris.Wrapf(ErrNoZone, "at (%.6f, %.6f)", lat, lon)
				}
				pt.InBoundary = true
				pt.ZoneID = id
				g.active = append(g.active, len(g.points))
			}

			g.points = append(g.points, pt)
		}
	}

	zap.L().Info("grid: built evaluation lattice",
		zap.Float64("step_km", stepKM),
		zap.Int("n_lon", nLon),
		zap.Int("n_lat", nLat),
		zap.Int("total_points", len(g.points)),
		zap.Int("active_points", len(g.active)),
	)
	return g, nil
}

// StepKM returns the configured step size.
func (g *Grid) StepKM() float64 { return g.stepKM }

// Shape returns the lattice dimensions (longitude count, latitude count).
func (g *Grid) Shape() (nLon, nLat int) { return g.nLon, g.nLat }

// Points returns the full lattice, including out-of-boundary points,
// for plotting against consistent axes.
func (g *Grid) Points() []Point { return g.points }

// Active returns only the in-boundary points, in lattice order. This is
// the view accessibility computation runs on.
func (g *Grid) Active() []Point {
	pts := make([]Point, len(g.active))
	for i, idx := range g.active {
		pts[i] = g.points[idx]
	}
	return pts
}

// ActivePositions returns the positions of the in-boundary points.
func (g *Grid) ActivePositions() []geo.Position {
	pos := make([]geo.Position, len(g.active))
	for i, idx := range g.active {
		pos[i] = g.points[idx].Pos
	}
	return pos
}

// linspace returns n evenly spaced values over [min, max]. A single
// point degenerates to min.
func linspace(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{min}
	}
	vals := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range vals {
		vals[i] = min + float64(i)*step
	}
	vals[n-1] = max
	return vals
}
