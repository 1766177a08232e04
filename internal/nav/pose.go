package nav

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is the camera state reported to HUD and telemetry consumers
// every frame. Orientation is derived from the camera's forward vector
// at report time, never stored and accumulated, so it cannot drift.
type Pose struct {
	Position mgl32.Vec3
	Pitch    float32 // degrees
	Yaw      float32 // degrees
}

// PoseListener observes the camera pose once per frame. Listeners must
// not mutate navigation state.
type PoseListener func(Pose)

func poseFrom(position, forward mgl32.Vec3) Pose {
	return Pose{
		Position: position,
		Pitch:    mgl32.RadToDeg(math32.Asin(-forward.Y())),
		Yaw:      mgl32.RadToDeg(math32.Atan2(forward.X(), forward.Z())),
	}
}
