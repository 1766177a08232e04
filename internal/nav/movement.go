package nav

// InputState is the set of held movement inputs for one frame. Input
// handlers only toggle these booleans; the frame loop is the sole
// integrator, so input rate and frame rate never race.
type InputState struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Up      bool
	Down    bool
	Sprint  bool
}

// Movement keeps three independent per-axis velocities, continuously
// eased toward the held input rather than switched on and off. There is
// no discrete movement state beyond these scalars.
type Movement struct {
	Acceleration float32 // per-second rate toward +/-1 while held
	Deceleration float32 // per-second rate toward 0 when released

	velForward  float32
	velRight    float32
	velVertical float32
}

// Integrate eases each axis velocity by delta seconds of the held
// inputs. Velocities stay clamped to [-1, 1]; releasing everything
// decays to zero over roughly 1/Deceleration seconds, never instantly.
func (m *Movement) Integrate(in InputState, delta float32) {
	m.velForward = easeAxis(m.velForward, in.Forward, in.Back, m.Acceleration, m.Deceleration, delta)
	m.velRight = easeAxis(m.velRight, in.Right, in.Left, m.Acceleration, m.Deceleration, delta)
	m.velVertical = easeAxis(m.velVertical, in.Up, in.Down, m.Acceleration, m.Deceleration, delta)
}

// Velocities returns the current forward, right and vertical axis
// velocities, each in [-1, 1].
func (m *Movement) Velocities() (forward, right, vertical float32) {
	return m.velForward, m.velRight, m.velVertical
}

// Stop zeroes all axis velocities.
func (m *Movement) Stop() {
	m.velForward = 0
	m.velRight = 0
	m.velVertical = 0
}

func easeAxis(v float32, pos, neg bool, accel, decel, delta float32) float32 {
	switch {
	case pos && !neg:
		v += accel * delta
		if v > 1 {
			v = 1
		}
	case neg && !pos:
		v -= accel * delta
		if v < -1 {
			v = -1
		}
	default:
		// No (or contradictory) input: decay toward rest.
		step := decel * delta
		switch {
		case v > step:
			v -= step
		case v < -step:
			v += step
		default:
			v = 0
		}
	}
	return v
}
