package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
)

// GTFS stop export columns.
const (
	transportStopIDColumn    = "stop_id"
	transportRouteIDColumn   = "route_id"
	transportRouteTypeColumn = "route_type"
)

// gtfsRouteType describes one GTFS route_type value: its display name
// and how far the stop's influence reaches relative to the mean radius.
// A metro stop serves a wider catchment than a tram or bus stop.
type gtfsRouteType struct {
	desc        string
	scaleFactor float64
}

var gtfsRouteTypes = map[string]gtfsRouteType{
	"0": {desc: "Tram", scaleFactor: 1},
	"1": {desc: "Metro", scaleFactor: 2},
	"3": {desc: "Bus", scaleFactor: 1},
}

// TransportStopLoader loads public transport stops from a GTFS stop
// export. Newborns and kindergarten children do not ride transit on
// their own, so those cohorts are excluded.
type TransportStopLoader struct{}

// Type implements Loader.
func (l *TransportStopLoader) Type() access.ServiceType { return access.TransportStop }

// Load implements Loader.
func (l *TransportStopLoader) Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	if err := validateMeanRadius(access.TransportStop, meanRadiusKM); err != nil {
		return nil, err
	}
	tbl, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	diffusion := make(map[access.AgeGroup]float64)
	for _, g := range access.AllBut(access.Newborn, access.Kinder) {
		diffusion[g] = 1
	}

	var units []*access.Unit
	var skipped int

	for _, row := range tbl.rows {
		routeTypeVal, err := tbl.get(row, transportRouteTypeColumn)
		if err != nil {
			return nil, err
		}
		rt, ok := gtfsRouteTypes[strings.TrimSpace(routeTypeVal)]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownCategory, "gtfs route type %q", routeTypeVal)
		}

		pos, err := tbl.position(row)
		if err != nil {
			skipped++
			continue
		}

		stopID, err := tbl.get(row, transportStopIDColumn)
		if err != nil {
			return nil, err
		}
		routeID, err := tbl.get(row, transportRouteIDColumn)
		if err != nil {
			return nil, err
		}

		// One unit per stop-route pair: the same platform served by two
		// routes counts twice, which is what accessibility should see.
		name := stopID + "_" + routeID

		unit, err := access.NewUnit(access.TransportStop, name, pos,
			rt.scaleFactor*meanRadiusKM,
			diffusion,
			map[string]string{"routeType": rt.desc},
		)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: transport stop %q", name)
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("ingest: transport registry %s has no usable rows", path)
	}
	logLoaded(access.TransportStop, path, len(units), skipped)
	return units, nil
}
