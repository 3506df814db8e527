package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/fetcher"
	"github.com/civita/urbanaccess/internal/geo"
)

// Ministry of Health pharmacy registry columns.
const (
	pharmacyCodeColumn = "CODICEIDENTIFICATIVOFARMACIA"
	pharmacyDescColumn = "DESCRIZIONEFARMACIA"
	pharmacyVATColumn  = "PARTITAIVA"
)

// pharmacyRecord mirrors one FARMACIA element of the ministry's XML
// export, which carries the same field names as the CSV columns.
type pharmacyRecord struct {
	Code string `xml:"CODICEIDENTIFICATIVOFARMACIA"`
	Desc string `xml:"DESCRIZIONEFARMACIA"`
	VAT  string `xml:"PARTITAIVA"`
	Lat  string `xml:"Lat"`
	Long string `xml:"Long"`
}

// PharmacyLoader loads the pharmacy registry. The ministry publishes it
// both as semicolon CSV and as latin-1 XML; both carry the same fields.
// Every pharmacy shares the same kernel profile — uniform scale, all
// cohorts served — so the whole collection ends up on a single cached
// threshold.
type PharmacyLoader struct{}

// Type implements Loader.
func (l *PharmacyLoader) Type() access.ServiceType { return access.Pharmacy }

// Load implements Loader.
func (l *PharmacyLoader) Load(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	if err := validateMeanRadius(access.Pharmacy, meanRadiusKM); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return l.loadXML(ctx, path, meanRadiusKM)
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
		code, err := tbl.get(row, pharmacyCodeColumn)
		if err != nil {
			return nil, err
		}
		desc, err := tbl.get(row, pharmacyDescColumn)
		if err != nil {
			return nil, err
		}
		vat, err := tbl.get(row, pharmacyVATColumn)
		if err != nil {
			return nil, err
		}

		unit, err := newPharmacyUnit(code, desc, vat, pos, meanRadiusKM)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("ingest: pharmacy registry %s has no usable rows", path)
	}
	logLoaded(access.Pharmacy, path, len(units), skipped)
	return units, nil
}

func (l *PharmacyLoader) loadXML(ctx context.Context, path string, meanRadiusKM float64) ([]*access.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer func() { _ = f.Close() }()

	recCh, errCh := fetcher.StreamXML[pharmacyRecord](ctx, f, "FARMACIA")

	var units []*access.Unit
	var skipped int
	for rec := range recCh {
		lat, latErr := fetcher.ParseDecimal(rec.Lat)
		lon, lonErr := fetcher.ParseDecimal(rec.Long)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		unit, err := newPharmacyUnit(rec.Code, rec.Desc, rec.VAT, geo.Position{Lat: lat, Lon: lon}, meanRadiusKM)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("ingest: pharmacy registry %s has no usable rows", path)
	}
	logLoaded(access.Pharmacy, path, len(units), skipped)
	return units, nil
}

func newPharmacyUnit(code, desc, vat string, pos geo.Position, meanRadiusKM float64) (*access.Unit, error) {
	unit, err := access.NewUnit(access.Pharmacy, code, pos, meanRadiusKM,
		allGroupsWeightOne(),
		map[string]string{"Descrizione": desc, "PartitaIva": vat},
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: pharmacy %q", code)
	}
	return unit, nil
}
