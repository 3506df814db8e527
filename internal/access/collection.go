package access

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Collection owns the service units of one service type and their
// shared threshold caches.
//
// Units frequently share a (scale, age diffusion) profile — every
// pharmacy, every tram stop — so thresholds are computed once per
// distinct profile and the same write-once map is handed to every unit
// in the group. Construction is the single-writer phase; after
// NewCollection returns, nothing mutates a unit.
type Collection struct {
	serviceType ServiceType
	units       []*Unit
	epsilon     float64
	profiles    int
}

// NewCollection groups units by kernel profile, computes thresholds
// once per group, and back-fills every unit's cache.
func NewCollection(st ServiceType, units []*Unit, epsilon float64) (*Collection, error) {
	if epsilon <= 0 || epsilon >= 1 {
		return nil, eris.Errorf("access: epsilon must be in (0, 1), got %g", epsilon)
	}
	for _, u := range units {
		if u.Type != st {
			return nil, eris.Errorf("access: unit %q has type %s, collection is %s", u.Name, u.Type, st)
		}
	}

	cache := make(map[string]map[AgeGroup]float64)
	for _, u := range units {
		key := profileKey(u)
		thresholds, ok := cache[key]
		if !ok {
			thresholds = make(map[AgeGroup]float64, len(u.ageDiffusion))
			for g, w := range u.ageDiffusion {
				thresholds[g] = ThresholdKM(u.Scale, w, epsilon)
			}
			cache[key] = thresholds
		}
		u.thresholds = thresholds
	}

	zap.L().Debug("access: collection built",
		zap.String("service", st.String()),
		zap.Int("units", len(units)),
		zap.Int("kernel_profiles", len(cache)),
	)
	return &Collection{
		serviceType: st,
		units:       units,
		epsilon:     epsilon,
		profiles:    len(cache),
	}, nil
}

// Type returns the service type the collection holds.
func (c *Collection) Type() ServiceType { return c.serviceType }

// Units returns all units.
func (c *Collection) Units() []*Unit { return c.units }

// Epsilon returns the truncation tolerance thresholds were derived from.
func (c *Collection) Epsilon() float64 { return c.epsilon }

// Profiles returns the number of distinct kernel profiles found.
func (c *Collection) Profiles() int { return c.profiles }

// UnitsFor returns the units with non-zero weight for a cohort. Units
// with zero weight never participate in aggregation for that cohort.
func (c *Collection) UnitsFor(g AgeGroup) []*Unit {
	var subset []*Unit
	for _, u := range c.units {
		if u.Weight(g) > 0 {
			subset = append(subset, u)
		}
	}
	return subset
}

// AgeGroups returns the cohorts served by at least one unit.
func (c *Collection) AgeGroups() []AgeGroup {
	var groups []AgeGroup
	for _, g := range AllAgeGroups() {
		for _, u := range c.units {
			if u.Weight(g) > 0 {
				groups = append(groups, g)
				break
			}
		}
	}
	return groups
}

// profileKey identifies a (scale, age diffusion) kernel profile. Two
// units get the same key exactly when scale and every weight match
// bit-for-bit, so a cached threshold is never reused across differing
// profiles.
func profileKey(u *Unit) string {
	groups := make([]AgeGroup, 0, len(u.ageDiffusion))
	for g := range u.ageDiffusion {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	var b strings.Builder
	b.WriteString(strconv.FormatUint(math.Float64bits(u.Scale), 16))
	for _, g := range groups {
		fmt.Fprintf(&b, "|%d:%x", g, math.Float64bits(u.ageDiffusion[g]))
	}
	return b.String()
}
