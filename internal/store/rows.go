package store

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/kpi"
)

// zoneKPIColumns is the flat row layout shared by both drivers.
var zoneKPIColumns = []string{"run_id", "zone_id", "service", "age_group", "defined", "value"}

// kpiRows flattens zone indicators into rows in deterministic order:
// zones sorted lexically, services and age groups in enum order.
func kpiRows(runID string, zk kpi.ZoneKPI) [][]any {
	zoneIDs := make([]string, 0, len(zk))
	for id := range zk {
		zoneIDs = append(zoneIDs, id)
	}
	sort.Strings(zoneIDs)

	var rows [][]any
	for _, zoneID := range zoneIDs {
		byService := zk[zoneID]
		for _, st := range access.AllServiceTypes() {
			byGroup, ok := byService[st]
			if !ok {
				continue
			}
			for _, g := range access.AllAgeGroups() {
				v, ok := byGroup[g]
				if !ok {
					continue
				}
				rows = append(rows, []any{runID, zoneID, st.String(), g.String(), v.Defined, v.V})
			}
		}
	}
	return rows
}

// kpiFromRow folds one stored row back into the indicator map.
func kpiFromRow(zk kpi.ZoneKPI, zoneID, service, ageGroup string, defined bool, value float64) error {
	st, err := access.ParseServiceType(service)
	if err != nil {
		return eris.Wrap(err, "store: decode zone kpi")
	}
	g, err := access.ParseAgeGroup(ageGroup)
	if err != nil {
		return eris.Wrap(err, "store: decode zone kpi")
	}

	byService, ok := zk[zoneID]
	if !ok {
		byService = make(map[access.ServiceType]map[access.AgeGroup]kpi.Value)
		zk[zoneID] = byService
	}
	byGroup, ok := byService[st]
	if !ok {
		byGroup = make(map[access.AgeGroup]kpi.Value)
		byService[st] = byGroup
	}
	byGroup[g] = kpi.Value{Defined: defined, V: value}
	return nil
}
