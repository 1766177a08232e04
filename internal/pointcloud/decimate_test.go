package pointcloud

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func randomPoints(n int, seed int64, withColor bool) []Point {
	rng := rand.New(rand.NewSource(seed))
	points := make([]Point, n)
	for i := range points {
		points[i].Position = mgl32.Vec3{
			rng.Float32() * 10,
			rng.Float32() * 10,
			rng.Float32() * 10,
		}
		if withColor {
			points[i].Color = [3]uint8{uint8(i), uint8(i >> 8), 7}
		}
	}
	return points
}

func TestDecimate_PassThroughUnderTarget(t *testing.T) {
	cloud := New(randomPoints(1000, 1, false), false)

	got := Decimate(cloud, 1000, rand.New(rand.NewSource(1)))
	if got != cloud {
		t.Error("expected cloud at target size to pass through unchanged")
	}

	got = Decimate(cloud, 5000, rand.New(rand.NewSource(1)))
	if got != cloud {
		t.Error("expected cloud under target size to pass through unchanged")
	}
}

func TestDecimate_CountWithinTolerance(t *testing.T) {
	const (
		inputCount  = 300000
		targetCount = 100000
	)
	cloud := New(randomPoints(inputCount, 2, false), false)

	got := Decimate(cloud, targetCount, rand.New(rand.NewSource(42)))

	deviation := float64(got.Size()-targetCount) / float64(targetCount)
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > 0.05 {
		t.Errorf("output count %d deviates %.2f%% from target %d",
			got.Size(), deviation*100, targetCount)
	}
}

func TestDecimate_Reproducible(t *testing.T) {
	cloud := New(randomPoints(50000, 3, false), false)

	a := Decimate(cloud, 10000, rand.New(rand.NewSource(7)))
	b := Decimate(cloud, 10000, rand.New(rand.NewSource(7)))

	if a.Size() != b.Size() {
		t.Fatalf("same seed produced %d and %d points", a.Size(), b.Size())
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Fatalf("same seed diverged at point %d", i)
		}
	}
}

func TestDecimate_PreservesColorAndIdentity(t *testing.T) {
	cloud := New(randomPoints(20000, 4, true), true)

	got := Decimate(cloud, 5000, rand.New(rand.NewSource(9)))

	if !got.HasColor {
		t.Error("decimation dropped the color tag")
	}
	if got.ID != cloud.ID {
		t.Error("decimation changed the scan identity")
	}
	if got.Size() == 0 || got.Size() >= cloud.Size() {
		t.Fatalf("unexpected output size %d", got.Size())
	}

	// Surviving points keep their attributes; sampling preserves input
	// order, so verify via subsequence membership.
	j := 0
	for _, p := range got.Points {
		for j < len(cloud.Points) && cloud.Points[j] != p {
			j++
		}
		if j == len(cloud.Points) {
			t.Fatal("decimated point not found in input order")
		}
		j++
	}
}

func TestDecimate_RecomputesBounds(t *testing.T) {
	cloud := New(randomPoints(10000, 5, false), false)
	got := Decimate(cloud, 2000, rand.New(rand.NewSource(11)))

	for _, p := range got.Points {
		for i := 0; i < 3; i++ {
			if p.Position[i] < got.Bounds.Min[i] || p.Position[i] > got.Bounds.Max[i] {
				t.Fatalf("point %v outside recomputed bounds [%v, %v]",
					p.Position, got.Bounds.Min, got.Bounds.Max)
			}
		}
	}
}

func TestBudgetFor(t *testing.T) {
	if BudgetFor(TierLow) >= BudgetFor(TierMedium) {
		t.Error("low tier budget should be below medium")
	}
	if BudgetFor(TierMedium) >= BudgetFor(TierHigh) {
		t.Error("medium tier budget should be below high")
	}
	if BudgetFor(Tier("unknown")) != BudgetFor(TierMedium) {
		t.Error("unknown tier should fall back to medium")
	}
}
