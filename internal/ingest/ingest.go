// Package ingest builds service units from municipal open-data
// registries. Each service type has its own loader owning the column
// mapping and the category → age-group table for that registry; the
// engine only ever sees the uniform access.Unit representation.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/fetcher"
	"github.com/civita/urbanaccess/internal/geo"
)

// ErrUnknownCategory reports a registry category with no age-group
// mapping. Partial, inconsistent service data is worse than no data, so
// this fails the whole load for that service type.
var ErrUnknownCategory = eris.New("ingest: unrecognized category")

// Loader turns one service type's registry file into service units.
type Loader interface {
	Type() access.ServiceType
	// Load reads the registry at path. meanRadiusKM calibrates the
	// kernel scale for a typical unit of this service.
	Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error)
}

// LoaderFor returns the loader for a service type. The dispatch is a
// closed enumeration: adding a service means adding a loader here.
func LoaderFor(st access.ServiceType) (Loader, error) {
	switch st {
	case access.School:
		return &SchoolLoader{}, nil
	case access.Library:
		return &LibraryLoader{}, nil
	case access.TransportStop:
		return &TransportStopLoader{}, nil
	case access.Pharmacy:
		return &PharmacyLoader{}, nil
	case access.UrbanGreen:
		return &UrbanGreenLoader{}, nil
	}
	return nil, eris.Errorf("ingest: no loader for service type %s", st)
}

// Registry column names shared by every service dataset.
const (
	latColumn = "Lat"
	lonColumn = "Long"
)

// table is a parsed registry file with case-insensitive column lookup.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable parses a registry file, dispatching on extension: .xlsx
// spreadsheets or delimited text (semicolon, the common Italian
// open-data convention).
func readTable(ctx context.Context, path string) (*table, error) {
	var header []string
	var rows [][]string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer func() { _ = f.Close() }()
		header, rows, err = fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{Delimiter: ';', TrimSpace: true})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return &table{columns: columns, rows: rows}, nil
}

// get returns a cell by column name; empty string when the row is short.
func (t *table) get(row []string, column string) (string, error) {
	idx, ok := t.columns[strings.ToLower(column)]
	if !ok {
		return "", eris.Errorf("ingest: column %q not found", column)
	}
	if idx >= len(row) {
		return "", nil
	}
	return row[idx], nil
}

// position parses the location columns of a row.
func (t *table) position(row []string) (geo.Position, error) {
	latStr, err := t.get(row, latColumn)
	if err != nil {
		return geo.Position{}, err
	}
	lonStr, err := t.get(row, lonColumn)
	if err != nil {
		return geo.Position{}, err
	}
	lat, err := fetcher.ParseDecimal(latStr)
	if err != nil {
		return geo.Position{}, err
	}
	lon, err := fetcher.ParseDecimal(lonStr)
	if err != nil {
		return geo.Position{}, err
	}
	return geo.Position{Lat: lat, Lon: lon}, nil
}

func validateMeanRadius(st access.ServiceType, meanRadiusKM float64) error {
	if meanRadiusKM <= 0 {
		return eris.Errorf("ingest: %s: mean radius must be positive, got %g", st, meanRadiusKM)
	}
	return nil
}

func logLoaded(st access.ServiceType, path string, units, skipped int) {
	log := zap.L().With(
		zap.String("service", st.String()),
		zap.String("path", path),
	)
	if skipped > 0 {
		log.Warn("ingest: skipped rows with unusable coordinates", zap.Int("skipped", skipped))
	}
	log.Info("ingest: loaded service units", zap.Int("units", units))
}
