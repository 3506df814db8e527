package access

import "math"

// DefaultEpsilon is the kernel truncation tolerance: the relative level
// below which a unit's contribution is treated as exactly zero.
const DefaultEpsilon = 1e-3

// Contribution is the squared-exponential decay kernel. A unit at
// distance d kilometers contributes weight * exp(-(d/scale)^2): the
// full weight at its own location, strictly decreasing with distance.
func Contribution(d, scale, weight float64) float64 {
	if weight == 0 {
		return 0
	}
	r := d / scale
	return weight * math.Exp(-r*r)
}

// ThresholdKM returns the distance beyond which the kernel is treated
// as exactly zero: the point where the decay falls to eps of its peak.
// A zero weight has no influence at any distance, so its threshold is 0.
// The threshold depends only on scale and eps, never on a positive
// weight, which is what lets units sharing a scale share thresholds.
func ThresholdKM(scale, weight, eps float64) float64 {
	if weight == 0 {
		return 0
	}
	return scale * math.Sqrt(math.Log(1/eps))
}
