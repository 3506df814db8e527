package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
)

// Anagrafe biblioteche registry columns.
const (
	libraryNameColumn = "denominazioni.ufficiale"
	libraryTypeColumn = "tipologia-funzionale"
)

func allGroupsWeightOne() map[access.AgeGroup]float64 {
	diffusion := make(map[access.AgeGroup]float64)
	for _, g := range access.AllAgeGroups() {
		diffusion[g] = 1
	}
	return diffusion
}

// libraryTypeAges maps the registry's functional typology to served
// cohorts: general-purpose libraries serve everyone, school-oriented
// ones only primary-age children.
var libraryTypeAges = map[string]func() map[access.AgeGroup]float64{
	"Specializzata":                      allGroupsWeightOne,
	"Importante non specializzata":       allGroupsWeightOne,
	"Pubblica":                           allGroupsWeightOne,
	"NON SPECIFICATA":                    childPrimaryOnly,
	"Scolastica":                         childPrimaryOnly,
	"Istituto di insegnamento superiore": childPrimaryOnly,
	"Nazionale":                          childPrimaryOnly,
}

func childPrimaryOnly() map[access.AgeGroup]float64 {
	return map[access.AgeGroup]float64{access.ChildPrimary: 1}
}

// LibraryLoader loads the national library registry.
type LibraryLoader struct{}

// Type implements Loader.
func (l *LibraryLoader) Type() access.ServiceType { return access.Library }

// Load implements Loader.
func (l *LibraryLoader) Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	if err := validateMeanRadius(access.Library, meanRadiusKM); err != nil {
		return nil, err
	}
	tbl, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	var units []*access.Unit
	var skipped int

	for _, row := range tbl.rows {
		typology, err := tbl.get(row, libraryTypeColumn)
		if err != nil {
			return nil, err
		}
		diffusionFor, ok := libraryTypeAges[typology]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownCategory, "library typology %q", typology)
		}

		pos, err := tbl.position(row)
		if err != nil {
			skipped++
			continue
		}
		name, err := tbl.get(row, libraryNameColumn)
		if err != nil {
			return nil, err
		}

		unit, err := access.NewUnit(access.Library, name, pos, meanRadiusKM,
			diffusionFor(),
			map[string]string{"typology": typology},
		)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: library %q", name)
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("ingest: library registry %s has no usable rows", path)
	}
	logLoaded(access.Library, path, len(units), skipped)
	return units, nil
}
