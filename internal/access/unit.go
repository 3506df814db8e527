package access

import (
	"github.com/rotisserie/eris"

	"github.com/civita/urbanaccess/internal/geo"
)

// Unit is one physical instance of a service. It is read-only after
// construction except for the threshold cache, which the owning
// Collection fills exactly once before any aggregation runs.
type Unit struct {
	Type       ServiceType
	Name       string
	Position   geo.Position
	Scale      float64
	Attributes map[string]string

	ageDiffusion map[AgeGroup]float64
	thresholds   map[AgeGroup]float64
}

// NewUnit validates and builds a service unit. Scale must be positive
// and every diffusion weight non-negative; age groups absent from the
// diffusion map have zero relevance.
func NewUnit(st ServiceType, name string, pos geo.Position, scale float64, ageDiffusion map[AgeGroup]float64, attributes map[string]string) (*Unit, error) {
	if scale <= 0 {
		return nil, eris.Errorf("access: unit %q: scale must be positive, got %g", name, scale)
	}
	diffusion := make(map[AgeGroup]float64, len(ageDiffusion))
	for g, w := range ageDiffusion {
		if w < 0 {
			return nil, eris.Errorf("access: unit %q: negative weight %g for %s", name, w, g)
		}
		diffusion[g] = w
	}
	return &Unit{
		Type:         st,
		Name:         name,
		Position:     pos,
		Scale:        scale,
		Attributes:   attributes,
		ageDiffusion: diffusion,
	}, nil
}

// Weight returns the unit's relevance for a cohort; zero when absent.
func (u *Unit) Weight(g AgeGroup) float64 { return u.ageDiffusion[g] }

// Threshold returns the cached cutoff distance in kilometers for a
// cohort, or zero if the unit does not serve it. Valid only after the
// unit has been placed in a Collection.
func (u *Unit) Threshold(g AgeGroup) float64 {
	if u.thresholds == nil {
		return 0
	}
	return u.thresholds[g]
}

// ContributionAt evaluates the unit's kernel for a cohort at a position.
func (u *Unit) ContributionAt(g AgeGroup, pos geo.Position) float64 {
	w := u.ageDiffusion[g]
	if w == 0 {
		return 0
	}
	return Contribution(u.Position.DistanceKM(pos), u.Scale, w)
}
