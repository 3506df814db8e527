package zone

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// LoadOptions names the attribute fields carrying the zone identifier
// and display name in a subdivision shapefile.
type LoadOptions struct {
	IDField   string // required
	NameField string // optional; falls back to the ID
}

// Load reads a subdivision shapefile into a Layer. Records without a
// polygon shape or without a value in the ID field are skipped with a
// warning; an empty result is an error.
func Load(path string, opts LoadOptions) (*Layer, error) {
	if opts.IDField == "" {
		return nil, eris.New("zone: id field is required")
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	idIdx, ok := fieldIdx[strings.ToLower(opts.IDField)]
	if !ok {
		return nil, eris.Errorf("zone: field %q not found in %s", opts.IDField, path)
	}
	nameIdx := -1
	if opts.NameField != "" {
		if i, ok := fieldIdx[strings.ToLower(opts.NameField)]; ok {
			nameIdx = i
		}
	}

	var zones []Zone
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		id := attribute(reader, idIdx)
		if id == "" {
			skipped++
			continue
		}

		mp := PolygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		name := id
		if nameIdx >= 0 {
			if n := attribute(reader, nameIdx); n != "" {
				name = n
			}
		}

		zones = append(zones, Zone{ID: id, Name: name, Geometry: mp})
	}

	if skipped > 0 {
		zap.L().Warn("zone: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(zones) == 0 {
		return nil, eris.Errorf("zone: no usable polygon records in %s", path)
	}

	zap.L().Info("zone: loaded subdivision layer",
		zap.String("path", path),
		zap.Int("zones", len(zones)),
	)
	return NewLayer(zones), nil
}

func attribute(r *shp.Reader, idx int) string {
	val := strings.TrimRight(r.Attribute(idx), "\x00")
	return strings.TrimSpace(val)
}

// PolygonToMultiPolygon converts a shapefile polygon to a
// geom.MultiPolygon. Shapefile parts with clockwise winding open a new
// polygon; counter-clockwise parts are holes in the preceding one.
func PolygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	// Assemble complete polygons (exterior plus holes) first: the
	// multipolygon copies coordinates on Push, so rings added to a
	// polygon afterwards would be lost.
	var polygons []*geom.Polygon
	var current *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if xy.IsRingCounterClockwise(geom.XY, flat) && current != nil {
			if err := current.Push(ring); err != nil {
				zap.L().Debug("zone: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("zone: skipping malformed exterior ring", zap.Int32("part", i), zap.Error(err))
			current = nil
			continue
		}
		polygons = append(polygons, current)
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i, poly := range polygons {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("zone: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
