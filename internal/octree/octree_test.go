package octree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/metroa-labs/pointwalk/internal/pointcloud"
)

// uniformCloud generates points uniformly distributed in a cube of the
// given side length centered at the origin.
func uniformCloud(t *testing.T, n int, side float32, seed int64) *pointcloud.Cloud {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	points := make([]pointcloud.Point, n)
	for i := range points {
		points[i].Position = mgl32.Vec3{
			(rng.Float32() - 0.5) * side,
			(rng.Float32() - 0.5) * side,
			(rng.Float32() - 0.5) * side,
		}
	}
	return pointcloud.New(points, false)
}

func TestBuild_Containment(t *testing.T) {
	cloud := uniformCloud(t, 2000, 10, 1)
	tree, err := Build(cloud, 32, 8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Every point must be found by a query centered on itself.
	for i := 0; i < cloud.Size(); i += 7 {
		got := tree.Query(cloud.Points[i].Position, 0.01)
		found := false
		for _, idx := range got {
			if idx == i {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("point %d missing from query at its own position", i)
		}
	}
}

// leafSets walks the built tree and collects every leaf's index set.
func leafSets(n *node) [][]int {
	if n.children == nil {
		return [][]int{n.indices}
	}
	var out [][]int
	for _, child := range n.children {
		out = append(out, leafSets(child)...)
	}
	return out
}

func TestBuild_Disjointness(t *testing.T) {
	cloud := uniformCloud(t, 5000, 10, 2)
	tree, err := Build(cloud, 50, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seen := make(map[int]int)
	for _, leaf := range leafSets(&tree.root) {
		for _, idx := range leaf {
			seen[idx]++
		}
	}

	if len(seen) != cloud.Size() {
		t.Errorf("expected %d indexed points, got %d", cloud.Size(), len(seen))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("point %d assigned to %d leaves", idx, count)
		}
	}
}

// expectedLeafUnion walks every node without pruning and unions the
// indices of all leaves whose cube intersects the sphere.
func expectedLeafUnion(n *node, center mgl32.Vec3, radiusSq float32, out map[int]bool) {
	if !n.intersectsSphere(center, radiusSq) {
		return
	}
	if n.children == nil {
		for _, idx := range n.indices {
			out[idx] = true
		}
		return
	}
	for _, child := range n.children {
		expectedLeafUnion(child, center, radiusSq, out)
	}
}

func TestQuery_SoundnessBound(t *testing.T) {
	cloud := uniformCloud(t, 4000, 10, 3)
	tree, err := Build(cloud, 40, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	center := mgl32.Vec3{1.5, -0.5, 2}
	radius := float32(1.2)

	expected := make(map[int]bool)
	expectedLeafUnion(&tree.root, center, radius*radius, expected)

	got := tree.Query(center, radius)
	if len(got) != len(expected) {
		t.Fatalf("query returned %d indices, expected %d", len(got), len(expected))
	}
	for _, idx := range got {
		if !expected[idx] {
			t.Errorf("index %d not in any intersecting leaf", idx)
		}
	}
}

func TestQuery_Degenerate(t *testing.T) {
	cloud := uniformCloud(t, 100, 10, 4)
	tree, err := Build(cloud, 10, 6)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := tree.Query(mgl32.Vec3{}, 0); got != nil {
		t.Errorf("zero radius: expected nil, got %d indices", len(got))
	}
	if got := tree.Query(mgl32.Vec3{}, -1); got != nil {
		t.Errorf("negative radius: expected nil, got %d indices", len(got))
	}
	if got := tree.Query(mgl32.Vec3{1000, 1000, 1000}, 1); len(got) != 0 {
		t.Errorf("distant query: expected empty, got %d indices", len(got))
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(nil, 10, 6); err == nil {
		t.Error("expected error for nil cloud")
	}
	if _, err := Build(pointcloud.New(nil, false), 10, 6); err == nil {
		t.Error("expected error for empty cloud")
	}

	bad := pointcloud.New([]pointcloud.Point{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{float32(math.NaN()), 0, 0}},
	}, false)
	if _, err := Build(bad, 10, 6); err != ErrDegenerateGeometry {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}

	ok := uniformCloud(t, 10, 1, 5)
	if _, err := Build(ok, 0, 6); err == nil {
		t.Error("expected error for zero leaf size")
	}
	if _, err := Build(ok, 10, -1); err == nil {
		t.Error("expected error for negative depth")
	}
}

func TestBuild_DepthCapOnClusteredInput(t *testing.T) {
	// All points identical: splitting can never separate them, so the
	// depth cap must terminate recursion and leave an oversized leaf.
	points := make([]pointcloud.Point, 500)
	for i := range points {
		points[i].Position = mgl32.Vec3{1, 2, 3}
	}
	cloud := pointcloud.New(points, false)

	tree, err := Build(cloud, 1, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	stats := tree.Stats()
	if stats.MaxDepth > 4 {
		t.Errorf("depth %d exceeds cap 4", stats.MaxDepth)
	}
	got := tree.Query(mgl32.Vec3{1, 2, 3}, 0.1)
	if len(got) != 500 {
		t.Errorf("expected all 500 clustered points, got %d", len(got))
	}
}

func TestQuery_SubLinearNodeVisits(t *testing.T) {
	// 10k points in a 10x10x10 cube, leaf size 50: a radius-1 query at
	// the center must prune most of the tree.
	cloud := uniformCloud(t, 10000, 10, 6)
	tree, err := Build(cloud, 50, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	stats := tree.Stats()
	if stats.PointCount != 10000 {
		t.Fatalf("expected 10000 indexed points, got %d", stats.PointCount)
	}
	if stats.NodeCount < 8 {
		t.Fatalf("expected a subdivided tree, got %d nodes", stats.NodeCount)
	}

	got, visited := tree.query(mgl32.Vec3{0, 0, 0}, 1)
	if len(got) == 0 {
		t.Error("expected non-empty result at cube center")
	}
	if visited >= stats.NodeCount/4 {
		t.Errorf("visited %d of %d nodes; pruning is not sub-linear", visited, stats.NodeCount)
	}
}
