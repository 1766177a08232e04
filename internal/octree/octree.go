// Package octree implements the hierarchical spatial index used for
// proximity queries against a loaded point cloud. A tree is built once
// per cloud, is read-only afterwards, and answers "which points sit
// near this sphere" in expected logarithmic node visits.
package octree

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/metroa-labs/pointwalk/internal/pointcloud"
)

// Build errors. Both are recoverable by the caller: navigation keeps
// running with collision detection disabled.
var (
	ErrEmptyCloud         = errors.New("octree: empty point cloud")
	ErrDegenerateGeometry = errors.New("octree: non-finite point coordinates")
)

// Stats are aggregate diagnostics over a built tree.
type Stats struct {
	NodeCount  int
	PointCount int
	MaxDepth   int
}

// Tree is the spatial index. Immutable after Build: single writer
// during construction, any number of frame-loop readers afterwards, no
// locking.
type Tree struct {
	root  node
	cloud *pointcloud.Cloud
	stats Stats
}

// node covers a cubic region of space. It either links up to eight
// children covering its disjoint octants, or it is a leaf holding point
// indices.
type node struct {
	center   mgl32.Vec3
	halfSize float32
	children []*node
	indices  []int
}

// Build constructs the index over the cloud's points. Any node holding
// more than maxPointsPerLeaf points splits into eight equal octants
// until maxDepth, which hard-caps recursion: leaves at maxDepth may
// legally exceed the per-leaf bound on heavily clustered input, so
// callers must not assume a strict leaf size.
func Build(cloud *pointcloud.Cloud, maxPointsPerLeaf, maxDepth int) (*Tree, error) {
	if cloud == nil || cloud.Size() == 0 {
		return nil, ErrEmptyCloud
	}
	if cloud.Degenerate() {
		return nil, ErrDegenerateGeometry
	}
	if maxPointsPerLeaf < 1 {
		return nil, fmt.Errorf("octree: maxPointsPerLeaf %d < 1", maxPointsPerLeaf)
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("octree: negative maxDepth %d", maxDepth)
	}

	t := &Tree{cloud: cloud}
	t.stats.PointCount = cloud.Size()

	// Cubic root volume: the bounding box grown to its longest side,
	// padded slightly so points on the max faces classify cleanly.
	size := cloud.Bounds.Size()
	half := maxComponent(size)/2 + 1e-4
	t.root.center = cloud.Bounds.Center()
	t.root.halfSize = half

	indices := make([]int, cloud.Size())
	for i := range indices {
		indices[i] = i
	}
	t.root.indices = indices
	t.split(&t.root, 0, maxPointsPerLeaf, maxDepth)

	return t, nil
}

// split recursively partitions a node's points into octants. Each point
// lands in exactly one child, chosen by comparing its position to the
// node center, so sibling leaves are spatially disjoint.
func (t *Tree) split(n *node, depth int, maxPointsPerLeaf, maxDepth int) {
	t.stats.NodeCount++
	if depth > t.stats.MaxDepth {
		t.stats.MaxDepth = depth
	}
	if len(n.indices) <= maxPointsPerLeaf || depth >= maxDepth {
		return
	}

	var buckets [8][]int
	for _, idx := range n.indices {
		oct := t.octant(n, idx)
		buckets[oct] = append(buckets[oct], idx)
	}
	n.indices = nil

	quarter := n.halfSize / 2
	n.children = make([]*node, 0, 8)
	for oct, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		child := &node{
			center:   octantCenter(n.center, quarter, oct),
			halfSize: n.halfSize / 2,
			indices:  bucket,
		}
		n.children = append(n.children, child)
		t.split(child, depth+1, maxPointsPerLeaf, maxDepth)
	}
}

func (t *Tree) octant(n *node, idx int) int {
	p := t.cloud.Points[idx].Position
	oct := 0
	if p[0] >= n.center[0] {
		oct |= 1
	}
	if p[1] >= n.center[1] {
		oct |= 2
	}
	if p[2] >= n.center[2] {
		oct |= 4
	}
	return oct
}

func octantCenter(center mgl32.Vec3, quarter float32, oct int) mgl32.Vec3 {
	c := center
	if oct&1 != 0 {
		c[0] += quarter
	} else {
		c[0] -= quarter
	}
	if oct&2 != 0 {
		c[1] += quarter
	} else {
		c[1] -= quarter
	}
	if oct&4 != 0 {
		c[2] += quarter
	} else {
		c[2] -= quarter
	}
	return c
}

// Query returns the indices of all points in leaves whose cubes
// intersect sphere(center, radius). The result is a superset of exact
// sphere membership: surviving leaves are returned whole, with no
// per-point distance filtering. Callers use it to detect the presence
// of nearby geometry, not to rank by distance.
//
// A non-positive radius yields an empty result, not an error.
func (t *Tree) Query(center mgl32.Vec3, radius float32) []int {
	out, _ := t.query(center, radius)
	return out
}

// query additionally reports how many nodes were visited, which the
// tests use to check pruning stays sub-linear.
func (t *Tree) query(center mgl32.Vec3, radius float32) ([]int, int) {
	if radius <= 0 || t.stats.PointCount == 0 {
		return nil, 0
	}
	var out []int
	visited := 0
	t.collect(&t.root, center, radius*radius, &out, &visited)
	return out, visited
}

func (t *Tree) collect(n *node, center mgl32.Vec3, radiusSq float32, out *[]int, visited *int) {
	*visited++
	if !n.intersectsSphere(center, radiusSq) {
		return
	}
	if n.children == nil {
		*out = append(*out, n.indices...)
		return
	}
	for _, child := range n.children {
		t.collect(child, center, radiusSq, out, visited)
	}
}

// intersectsSphere clamps the sphere center to the cube and compares
// the squared distance against the squared radius.
func (n *node) intersectsSphere(center mgl32.Vec3, radiusSq float32) bool {
	var distSq float32
	for i := 0; i < 3; i++ {
		min := n.center[i] - n.halfSize
		max := n.center[i] + n.halfSize
		v := center[i]
		if v < min {
			d := min - v
			distSq += d * d
		} else if v > max {
			d := v - max
			distSq += d * d
		}
	}
	return distSq <= radiusSq
}

// Position returns the position of an indexed point.
func (t *Tree) Position(idx int) mgl32.Vec3 {
	return t.cloud.Points[idx].Position
}

// Stats returns the aggregate build diagnostics.
func (t *Tree) Stats() Stats {
	return t.stats
}

func maxComponent(v mgl32.Vec3) float32 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}
