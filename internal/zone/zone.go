// Package zone models a city's administrative subdivisions and answers
// point-in-polygon queries against them.
package zone

import (
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/civita/urbanaccess/internal/geo"
)

// Zone is one administrative subdivision polygon.
type Zone struct {
	ID       string
	Name     string
	Geometry *geom.MultiPolygon
}

// Layer is an ordered set of zones covering a city, with an optional
// explicit boundary geometry. When no boundary is set, the boundary is
// the union of the zone polygons.
type Layer struct {
	zones    []Zone
	boundary *geom.MultiPolygon
}

// NewLayer builds a layer from zones. Zones are sorted by ascending ID
// so that containment scans are deterministic when polygons overlap at
// shared borders.
func NewLayer(zones []Zone) *Layer {
	sorted := make([]Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Layer{zones: sorted}
}

// SetBoundary sets an explicit city boundary distinct from the zone
// union. Grid construction treats a point inside this boundary but
// outside every zone as a fatal tiling violation.
func (l *Layer) SetBoundary(b *geom.MultiPolygon) { l.boundary = b }

// Zones returns the zones in ascending-ID order.
func (l *Layer) Zones() []Zone { return l.zones }

// IDs returns the zone identifiers in ascending order.
func (l *Layer) IDs() []string {
	ids := make([]string, len(l.zones))
	for i, z := range l.zones {
		ids[i] = z.ID
	}
	return ids
}

// Bounds returns the bounding box of the layer's boundary, or of the
// union of zone geometries when no explicit boundary is set.
func (l *Layer) Bounds() geo.BBox {
	if l.boundary != nil {
		return boundsOf(l.boundary)
	}
	var box geo.BBox
	for i, z := range l.zones {
		zb := boundsOf(z.Geometry)
		if i == 0 {
			box = zb
		} else {
			box = box.Extend(zb)
		}
	}
	return box
}

// InBoundary reports whether a position lies inside the city boundary.
func (l *Layer) InBoundary(pos geo.Position) bool {
	if l.boundary != nil {
		return multiPolygonContains(l.boundary, pos)
	}
	for i := range l.zones {
		if multiPolygonContains(l.zones[i].Geometry, pos) {
			return true
		}
	}
	return false
}

// FindZone returns the ID of the first zone containing the position,
// scanning zones in ascending-ID order.
func (l *Layer) FindZone(pos geo.Position) (string, bool) {
	for i := range l.zones {
		if multiPolygonContains(l.zones[i].Geometry, pos) {
			return l.zones[i].ID, true
		}
	}
	return "", false
}

func boundsOf(g geom.T) geo.BBox {
	b := g.Bounds()
	return geo.BBox{
		MinLon: b.Min(0),
		MinLat: b.Min(1),
		MaxLon: b.Max(0),
		MaxLat: b.Max(1),
	}
}

// multiPolygonContains tests point containment: inside some polygon's
// exterior ring and outside that polygon's holes.
func multiPolygonContains(mp *geom.MultiPolygon, pos geo.Position) bool {
	pt := geom.Coord{pos.Lon, pos.Lat}
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), pt) {
			return true
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), pt, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
