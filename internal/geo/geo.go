// Package geo provides geographic primitives for the accessibility
// engine: positions, great-circle distances, and bounding boxes, all
// measured in kilometers.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Position is an immutable geographic coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKM returns the great-circle distance in kilometers between
// two coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180.0

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// DistanceKM returns the great-circle distance to another position.
func (p Position) DistanceKM(q Position) float64 {
	return HaversineKM(p.Lat, p.Lon, q.Lat, q.Lon)
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// WidthKM returns the box's longitude span in kilometers, measured
// along the southern edge. Degree-to-km scale varies with latitude, so
// the two axes must be measured independently.
func (b BBox) WidthKM() float64 {
	return HaversineKM(b.MinLat, b.MinLon, b.MinLat, b.MaxLon)
}

// HeightKM returns the box's latitude span in kilometers, measured
// along the western edge.
func (b BBox) HeightKM() float64 {
	return HaversineKM(b.MinLat, b.MinLon, b.MaxLat, b.MinLon)
}

// Extend grows the box to include another box.
func (b BBox) Extend(o BBox) BBox {
	return BBox{
		MinLon: math.Min(b.MinLon, o.MinLon),
		MinLat: math.Min(b.MinLat, o.MinLat),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
	}
}
