package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
)

// Municipal green-area registry columns.
const (
	greenNameColumn = "DENOMINAZIONE"
	greenKindColumn = "TIPOLOGIA"
)

// UrbanGreenLoader loads parks and public green areas. All cohorts
// benefit equally; the scale is uniform across areas.
type UrbanGreenLoader struct{}

// Type implements Loader.
func (l *UrbanGreenLoader) Type() access.ServiceType { return access.UrbanGreen }

// Load implements Loader.
func (l *UrbanGreenLoader) Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	if err := validateMeanRadius(access.UrbanGreen, meanRadiusKM); err != nil {
		return nil, err
	}
	tbl, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	var units []*access.Unit
	var skipped int

	for _, row := range tbl.rows {
		pos, err := tbl.position(row)
		if err != nil {
			skipped++
			continue
		}
		name, err := tbl.get(row, greenNameColumn)
		if err != nil {
			return nil, err
		}

		attrs := map[string]string{}
		if kind, err := tbl.get(row, greenKindColumn); err == nil && kind != "" {
			attrs["tipologia"] = kind
		}

		unit, err := access.NewUnit(access.UrbanGreen, name, pos, meanRadiusKM,
			allGroupsWeightOne(), attrs)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: urban green %q", name)
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("ingest: urban green registry %s has no usable rows", path)
	}
	logLoaded(access.UrbanGreen, path, len(units), skipped)
	return units, nil
}
