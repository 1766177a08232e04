package nav

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
)

func TestMovement_EasesTowardHeldInput(t *testing.T) {
	m := Movement{Acceleration: 4, Deceleration: 6}

	m.Integrate(InputState{Forward: true}, 0.1)
	f, _, _ := m.Velocities()
	if math32.Abs(f-0.4) > 1e-5 {
		t.Errorf("forward velocity after one step = %f, want 0.4", f)
	}

	m.Integrate(InputState{Forward: true}, 0.1)
	m.Integrate(InputState{Forward: true}, 0.1)
	f, _, _ = m.Velocities()
	if f != 1 {
		t.Errorf("forward velocity should clamp at 1, got %f", f)
	}

	// Symmetric on the negative side.
	m2 := Movement{Acceleration: 4, Deceleration: 6}
	for i := 0; i < 10; i++ {
		m2.Integrate(InputState{Back: true}, 0.1)
	}
	f, _, _ = m2.Velocities()
	if f != -1 {
		t.Errorf("back velocity should clamp at -1, got %f", f)
	}
}

func TestMovement_DecaysToRest(t *testing.T) {
	m := Movement{Acceleration: 4, Deceleration: 6}
	for i := 0; i < 10; i++ {
		m.Integrate(InputState{Forward: true, Right: true}, 0.1)
	}

	// Releasing everything decays both axes to zero in about
	// 1/Deceleration seconds, never instantly.
	m.Integrate(InputState{}, 0.1)
	f, r, _ := m.Velocities()
	if f == 0 || r == 0 {
		t.Fatal("velocities dropped to zero in one step; decay should be gradual")
	}

	m.Integrate(InputState{}, 0.1)
	f, r, _ = m.Velocities()
	if f != 0 || r != 0 {
		t.Errorf("velocities not at rest after full decay window: %f, %f", f, r)
	}
}

func TestMovement_ContradictoryInputDecays(t *testing.T) {
	m := Movement{Acceleration: 4, Deceleration: 6}
	for i := 0; i < 5; i++ {
		m.Integrate(InputState{Forward: true}, 0.1)
	}
	before, _, _ := m.Velocities()

	m.Integrate(InputState{Forward: true, Back: true}, 0.1)
	after, _, _ := m.Velocities()
	if math32.Abs(after) >= math32.Abs(before) {
		t.Errorf("holding both directions should decay velocity: %f -> %f", before, after)
	}
}

func TestMovement_VerticalAxisIndependent(t *testing.T) {
	m := Movement{Acceleration: 4, Deceleration: 6}
	m.Integrate(InputState{Up: true}, 0.1)
	f, r, v := m.Velocities()
	if f != 0 || r != 0 {
		t.Error("vertical input leaked into horizontal axes")
	}
	if v <= 0 {
		t.Errorf("vertical velocity = %f, want > 0", v)
	}
}

func TestUpdate_SprintDisplacement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseSpeed = 4
	ctl := New(cfg, nil, nil)
	ctl.SetInput(InputState{Forward: true, Sprint: true})

	// 60 frames at 1/60s: velocity ramps to 1 over the first 15 frames
	// (acceleration 4), then holds. Closed form: sum of velocities is
	// 8 + 45 = 53, so displacement is 53 * 8 / 60.
	const delta = 1.0 / 60
	for i := 0; i < 60; i++ {
		ctl.Update(delta)
	}

	want := float32(53 * 8.0 / 60)
	got := -ctl.Position().Z() // initial forward is -Z
	if math32.Abs(got-want) > 0.01 {
		t.Errorf("sprint displacement = %f, want %f", got, want)
	}
	if got >= 8 {
		t.Errorf("displacement %f should stay below the no-ramp bound 8", got)
	}
}

func TestUpdate_Determinism(t *testing.T) {
	run := func() [3]float32 {
		ctl := New(DefaultConfig(), nil, nil)
		rng := rand.New(rand.NewSource(99))
		for i := 0; i < 500; i++ {
			ctl.SetInput(InputState{
				Forward: rng.Intn(2) == 0,
				Back:    rng.Intn(4) == 0,
				Left:    rng.Intn(3) == 0,
				Right:   rng.Intn(3) == 0,
				Up:      rng.Intn(5) == 0,
				Sprint:  rng.Intn(2) == 0,
			})
			ctl.Update(1.0/60 + float32(rng.Intn(10))/2000)
		}
		p := ctl.Position()
		return [3]float32{p.X(), p.Y(), p.Z()}
	}

	first := run()
	second := run()
	for i := 0; i < 3; i++ {
		if math32.Abs(first[i]-second[i]) > 1e-6 {
			t.Fatalf("positions diverged on axis %d: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestUpdate_DiagonalNotNormalized(t *testing.T) {
	cfg := DefaultConfig()
	ctl := New(cfg, nil, nil)
	ctl.SetInput(InputState{Forward: true, Right: true})

	// Saturate both axes, then measure a single frame.
	const delta = 1.0 / 60
	for i := 0; i < 120; i++ {
		ctl.Update(delta)
	}
	before := ctl.Position()
	ctl.Update(delta)
	step := ctl.Position().Sub(before).Len()

	nominal := cfg.BaseSpeed * delta
	diagonal := nominal * math32.Sqrt2
	if step <= nominal*1.2 {
		t.Errorf("diagonal step %f should exceed nominal %f; axes must sum independently", step, nominal)
	}
	if math32.Abs(step-diagonal) > 0.001 {
		t.Errorf("diagonal step = %f, want ~%f", step, diagonal)
	}
}

func TestUpdate_VerticalLeavesWalkingPlane(t *testing.T) {
	ctl := New(DefaultConfig(), nil, nil)

	// Pitch the camera down, then move forward: the walk must stay
	// level because forward's vertical component is zeroed.
	ctl.Look(0, 0.8)
	ctl.SetInput(InputState{Forward: true})
	for i := 0; i < 60; i++ {
		ctl.Update(1.0 / 60)
	}
	if y := ctl.Position().Y(); math32.Abs(y) > 1e-5 {
		t.Errorf("forward walk changed altitude to %f", y)
	}

	ctl.SetInput(InputState{Up: true})
	for i := 0; i < 60; i++ {
		ctl.Update(1.0 / 60)
	}
	if y := ctl.Position().Y(); y <= 0 {
		t.Errorf("vertical input did not raise camera, y = %f", y)
	}
}
