package pointcloud

import (
	"math/rand"
)

// Tier is a device capability class used to pick a point budget.
type Tier string

// Device tiers recognized in configuration.
const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Point budgets per tier. The high tier matches the reconstruction
// pipeline's 5M-point cap, so high-tier devices usually render the
// cloud untouched.
const (
	budgetLow    = 500_000
	budgetMedium = 2_000_000
	budgetHigh   = 5_000_000
)

// BudgetFor maps a tier to its target point count. Unknown tiers fall
// back to medium.
func BudgetFor(tier Tier) int {
	switch tier {
	case TierLow:
		return budgetLow
	case TierHigh:
		return budgetHigh
	default:
		return budgetMedium
	}
}

// Decimate reduces the cloud to approximately targetCount points by
// uniform random sampling: a single pass over the input, including each
// point independently with probability targetCount/len(points). The
// output count is a statistical approximation of the target, not exact.
//
// Clouds at or under the target are returned unchanged. Color and the
// scan identity carry over; the bounding box is recomputed from the
// surviving points.
func Decimate(c *Cloud, targetCount int, rng *rand.Rand) *Cloud {
	if targetCount <= 0 || c.Size() <= targetCount {
		return c
	}

	keep := float64(targetCount) / float64(c.Size())
	out := make([]Point, 0, targetCount+targetCount/16)
	for _, p := range c.Points {
		if rng.Float64() < keep {
			out = append(out, p)
		}
	}

	dec := &Cloud{
		ID:       c.ID,
		Points:   out,
		HasColor: c.HasColor,
	}
	dec.Bounds = computeBounds(out)
	return dec
}
