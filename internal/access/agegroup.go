// Package access implements the spatial accessibility engine: service
// units, the distance-decay kernel with threshold caching, and the
// pruned aggregation of unit contributions over query points.
package access

import "github.com/rotisserie/eris"

// AgeGroup is an enumerated beneficiary cohort.
type AgeGroup int

// Beneficiary cohorts, youngest first.
const (
	Newborn AgeGroup = iota
	Kinder
	ChildPrimary
	ChildMid
	ChildHigh
	Young
	Junior
	Senior
	Over65
	numAgeGroups
)

var ageGroupNames = [numAgeGroups]string{
	"newborn",
	"kinder",
	"child_primary",
	"child_mid",
	"child_high",
	"young",
	"junior",
	"senior",
	"over65",
}

func (g AgeGroup) String() string {
	if g < 0 || g >= numAgeGroups {
		return "unknown"
	}
	return ageGroupNames[g]
}

// ParseAgeGroup resolves a cohort name as emitted by String.
func ParseAgeGroup(s string) (AgeGroup, error) {
	for i, name := range ageGroupNames {
		if name == s {
			return AgeGroup(i), nil
		}
	}
	return 0, eris.Errorf("access: unknown age group %q", s)
}

// AllAgeGroups returns every cohort.
func AllAgeGroups() []AgeGroup {
	groups := make([]AgeGroup, numAgeGroups)
	for i := range groups {
		groups[i] = AgeGroup(i)
	}
	return groups
}

// AllBut returns every cohort except the given ones.
func AllBut(excluded ...AgeGroup) []AgeGroup {
	skip := make(map[AgeGroup]bool, len(excluded))
	for _, g := range excluded {
		skip[g] = true
	}
	var groups []AgeGroup
	for i := AgeGroup(0); i < numAgeGroups; i++ {
		if !skip[i] {
			groups = append(groups, i)
		}
	}
	return groups
}
