package nav

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/metroa-labs/pointwalk/internal/octree"
)

// Reduced-radius factor for confirming a slid displacement, and the
// outward nudge applied when even the slide stays obstructed.
const (
	slideCheckFactor = 0.8
	pushOutFactor    = 0.1
)

// Resolver turns a proposed displacement into a committed position,
// sliding along nearby geometry instead of stopping dead or passing
// through it.
type Resolver struct {
	// Radius is the minimum allowed camera-to-point distance before a
	// collision response triggers.
	Radius float32
}

// Resolve applies the displacement to pos against the index. A nil
// index (not built yet, or build failed) accepts the displacement
// unchecked. At most one position update happens per call.
//
// The collision normal is the normalized sum of unit vectors from each
// nearby point toward the candidate position: a density-weighted
// outward direction, not a true surface normal. It can misbehave in
// sparse or noisy regions; that trade is deliberate and should not be
// silently replaced with real normal estimation.
func (r *Resolver) Resolve(pos, displacement mgl32.Vec3, index *octree.Tree) mgl32.Vec3 {
	candidate := pos.Add(displacement)
	if index == nil {
		return candidate
	}

	nearby := index.Query(candidate, r.Radius)
	if len(nearby) == 0 {
		return candidate
	}

	normal := r.contactNormal(candidate, nearby, index)
	if normal.Len() == 0 {
		// Surrounded symmetrically; nowhere sensible to slide.
		return pos
	}

	// Reject the inward component, keeping motion tangential to the
	// obstruction.
	slid := displacement
	if d := displacement.Dot(normal); d < 0 {
		slid = displacement.Sub(normal.Mul(d))
	}

	candidate = pos.Add(slid)
	if len(index.Query(candidate, r.Radius*slideCheckFactor)) == 0 {
		return candidate
	}

	// Still obstructed: back the camera out along the normal rather
	// than leaving it embedded in geometry.
	return pos.Add(normal.Mul(r.Radius * pushOutFactor))
}

func (r *Resolver) contactNormal(candidate mgl32.Vec3, nearby []int, index *octree.Tree) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, idx := range nearby {
		away := candidate.Sub(index.Position(idx))
		if away.Len() == 0 {
			continue
		}
		sum = sum.Add(away.Normalize())
	}
	if sum.Len() == 0 {
		return mgl32.Vec3{}
	}
	return sum.Normalize()
}
