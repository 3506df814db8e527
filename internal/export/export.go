// Package export writes the visualization bundle: a menu.json
// describing the city's layer tree and one JSON file per service area
// with zone-level indicator records.
package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/kpi"
)

// DefaultPrecision is the decimal precision for exported indicator
// values.
const DefaultPrecision = 4

// CityMeta carries the menu metadata for one city.
type CityMeta struct {
	Name      string     `json:"name"`
	SourceURL string     `json:"source"`
	Zoom      int        `json:"zoom"`
	Center    [2]float64 `json:"center"`
	// JoinField is the column the frontend joins records to the zone
	// geometry on.
	JoinField string `json:"joinField"`
}

// Indicator is one selectable measure inside a menu layer.
type Indicator struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	ID       string `json:"id"`
	Source   string `json:"dataSource"`
}

// MenuItem is one entry of menu.json: the zone source, then one layer
// per service area.
type MenuItem struct {
	Type       string      `json:"type"`
	City       string      `json:"city"`
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	SourceID   string      `json:"sourceId,omitempty"`
	Zoom       int         `json:"zoom,omitempty"`
	Center     *[2]float64 `json:"center,omitempty"`
	JoinField  string      `json:"joinField,omitempty"`
	Indicators []Indicator `json:"indicators,omitempty"`
}

// Menu builds the menu entries: the zone source item first, then one
// layer item per service area in lexical order.
func Menu(city CityMeta, services []access.ServiceType) []MenuItem {
	sourceID := city.Name + "_quartieri"
	center := city.Center
	items := []MenuItem{{
		Type:      "source",
		City:      city.Name,
		ID:        sourceID,
		URL:       city.SourceURL,
		Zoom:      city.Zoom,
		Center:    &center,
		JoinField: city.JoinField,
	}}

	byArea := make(map[access.ServiceArea][]access.ServiceType)
	for _, st := range services {
		byArea[st.Area()] = append(byArea[st.Area()], st)
	}
	areas := make([]access.ServiceArea, 0, len(byArea))
	for area := range byArea {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i] < areas[j] })

	for _, area := range areas {
		indicators := make([]Indicator, 0, len(byArea[area]))
		for _, st := range byArea[area] {
			indicators = append(indicators, Indicator{
				Category: string(area),
				Label:    st.Label(),
				ID:       st.String(),
				Source:   st.DataSource(),
			})
		}
		items = append(items, MenuItem{
			Type:       "layer",
			City:       city.Name,
			ID:         city.Name + "_" + string(area),
			SourceID:   sourceID,
			Indicators: indicators,
		})
	}
	return items
}

// Record is one zone's row in an area file: the join field plus, per
// service, the indicator values ordered as AllAgeGroups. Undefined
// indicators serialize as null.
type Record map[string]any

// ZoneRecords groups the zone indicators by service area. Values are
// rounded to precision decimals; zone IDs that look like integers are
// emitted as JSON numbers so the frontend join matches the source
// geometry's numeric IDs.
func ZoneRecords(zk kpi.ZoneKPI, joinField string, precision int) map[access.ServiceArea][]Record {
	if precision <= 0 {
		precision = DefaultPrecision
	}

	zoneIDs := make([]string, 0, len(zk))
	for id := range zk {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)

	out := make(map[access.ServiceArea][]Record)
	for _, id := range zoneIDs {
		byService := zk[id]
		recByArea := make(map[access.ServiceArea]Record)
		for st, byGroup := range byService {
			rec, ok := recByArea[st.Area()]
			if !ok {
				rec = Record{joinField: zoneIDValue(id)}
				recByArea[st.Area()] = rec
			}
			values := make([]any, 0, len(access.AllAgeGroups()))
			for _, g := range access.AllAgeGroups() {
				v, ok := byGroup[g]
				if !ok || !v.Defined {
					values = append(values, nil)
					continue
				}
				values = append(values, round(v.V, precision))
			}
			rec[st.String()] = values
		}
		for area, rec := range recByArea {
			out[area] = append(out[area], rec)
		}
	}
	return out
}

func zoneIDValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

// WriteAll writes menu.json and one <city>_<area>.json per service
// area under dir, creating it if needed.
func WriteAll(dir string, city CityMeta, menu []MenuItem, records map[access.ServiceArea][]Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create %s", dir)
	}

	if err := writeJSON(filepath.Join(dir, "menu.json"), menu); err != nil {
		return err
	}

	for area, recs := range records {
		name := city.Name + "_" + string(area) + ".json"
		if err := writeJSON(filepath.Join(dir, name), recs); err != nil {
			return err
		}
	}

	zap.L().Info("export: wrote visualization bundle",
		zap.String("dir", dir),
		zap.Int("areas", len(records)),
	)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return eris.Wrapf(err, "export: encode %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
