package ingest

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/fetcher"
)

// MIUR national school registry columns.
const (
	schoolNameColumn  = "DENOMINAZIONESCUOLA"
	schoolOrderColumn = "ORDINESCUOLA"
	schoolPupilColumn = "ALUNNI"
)

// schoolOrderAges maps the registry's school-order category to the
// cohort it serves. The enumeration is closed: an order outside it
// means the registry changed under us and the load must fail.
var schoolOrderAges = map[string]map[access.AgeGroup]float64{
	"SCUOLA PRIMARIA":            {access.ChildPrimary: 1},
	"SCUOLA SECONDARIA I GRADO":  {access.ChildMid: 1},
	"SCUOLA SECONDARIA II GRADO": {access.ChildHigh: 1},
}

// SchoolLoader loads the school registry. A school's reach grows with
// its size: the kernel scale is proportional to the square root of the
// pupil count, normalized so the average school gets meanRadiusKM.
type SchoolLoader struct{}

// Type implements Loader.
func (l *SchoolLoader) Type() access.ServiceType { return access.School }

// Load implements Loader.
func (l *SchoolLoader) Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	if err := validateMeanRadius(access.School, meanRadiusKM); err != nil {
		return nil, err
	}
	tbl, err := readTable(ctx, path)
	if err != nil {
		return nil, err
	}

	type schoolRow struct {
		row      []string
		rootSize float64
	}

	var parsed []schoolRow
	var sumRoot float64
	var skipped int

	for _, row := range tbl.rows {
		order, err := tbl.get(row, schoolOrderColumn)
		if err != nil {
			return nil, err
		}
		if _, ok := schoolOrderAges[order]; !ok {
			return nil, eris.Wrapf(ErrUnknownCategory, "school order %q", order)
		}

		pupilStr, err := tbl.get(row, schoolPupilColumn)
		if err != nil {
			return nil, err
		}
		pupils, err := fetcher.ParseDecimal(pupilStr)
		if err != nil || pupils <= 0 {
			skipped++
			continue
		}
		if _, err := tbl.position(row); err != nil {
			skipped++
			continue
		}

		root := math.Sqrt(pupils)
		parsed = append(parsed, schoolRow{row: row, rootSize: root})
		sumRoot += root
	}

	if len(parsed) == 0 {
		return nil, eris.Errorf("ingest: school registry %s has no usable rows", path)
	}
	meanRoot := sumRoot / float64(len(parsed))

	units := make([]*access.Unit, 0, len(parsed))
	for _, sr := range parsed {
		name, err := tbl.get(sr.row, schoolNameColumn)
		if err != nil {
			return nil, err
		}
		order, _ := tbl.get(sr.row, schoolOrderColumn)
		pos, _ := tbl.position(sr.row)

		scale := sr.rootSize / meanRoot * meanRadiusKM
		unit, err := access.NewUnit(access.School, name, pos, scale,
			schoolOrderAges[order],
			map[string]string{"level": order},
		)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: school %q", name)
		}
		units = append(units, unit)
	}

	logLoaded(access.School, path, len(units), skipped)
	return units, nil
}
