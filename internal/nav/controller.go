// Package nav implements collision-aware first-person navigation over
// an indexed point cloud: smoothed per-axis movement, sliding collision
// response and per-frame pose reporting.
package nav

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/metroa-labs/pointwalk/internal/octree"
	"github.com/metroa-labs/pointwalk/internal/pointcloud"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Pitch is clamped just short of straight up/down so the forward
// vector never degenerates against the world up axis.
const maxPitch = math32.Pi/2 - 0.01

// Config holds the navigation tunables.
type Config struct {
	BaseSpeed        float32 // units/sec, UI-adjustable within [0.5, 10]
	SprintMultiplier float32
	CollisionRadius  float32
	Acceleration     float32 // per-second easing toward full axis input
	Deceleration     float32 // per-second easing back to rest
	MaxPointsPerLeaf int     // octree leaf split threshold
	MaxIndexDepth    int     // octree recursion cap
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		BaseSpeed:        4,
		SprintMultiplier: 2,
		CollisionRadius:  0.5,
		Acceleration:     4,
		Deceleration:     6,
		MaxPointsPerLeaf: 64,
		MaxIndexDepth:    10,
	}
}

// Controller owns the camera state and advances it one step per
// rendered frame. Movement, input integration and collision resolution
// all run on the frame-loop goroutine; the only deferred work is the
// octree build, which publishes through an atomic pointer so readers
// see either "no index yet" or a fully built tree, never a torn one.
type Controller struct {
	cfg      Config
	log      *zap.Logger
	clk      clock.Clock
	lastStep time.Time

	position mgl32.Vec3
	forward  mgl32.Vec3 // unit; the single source of orientation

	input    InputState
	movement Movement
	resolver Resolver

	index atomic.Pointer[octree.Tree]

	// publishMu orders index publication against generation bumps so a
	// build finishing after a newer SetCloud can never install a stale
	// tree.
	publishMu  sync.Mutex
	generation atomic.Uint64

	listeners []PoseListener
}

// New creates a controller at the origin facing -Z. A nil logger
// disables logging; a nil clk uses the wall clock.
func New(cfg Config, clk clock.Clock, log *zap.Logger) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		cfg:     cfg,
		log:     log,
		clk:     clk,
		forward: mgl32.Vec3{0, 0, -1},
		movement: Movement{
			Acceleration: cfg.Acceleration,
			Deceleration: cfg.Deceleration,
		},
		resolver: Resolver{Radius: cfg.CollisionRadius},
	}
}

// SetInput replaces the held input flags. Safe to call any number of
// times between frames; only Update consumes them.
func (c *Controller) SetInput(in InputState) {
	c.input = in
}

// SetBaseSpeed adjusts movement speed, clamped to the supported range.
func (c *Controller) SetBaseSpeed(speed float32) {
	if speed < 0.5 {
		speed = 0.5
	}
	if speed > 10 {
		speed = 10
	}
	c.cfg.BaseSpeed = speed
}

// BaseSpeed returns the current base movement speed.
func (c *Controller) BaseSpeed() float32 {
	return c.cfg.BaseSpeed
}

// Look rotates the view by yaw/pitch deltas in radians. The deltas are
// folded into the forward vector immediately; pitch is clamped short of
// the poles.
func (c *Controller) Look(dYaw, dPitch float32) {
	yaw := math32.Atan2(c.forward.X(), c.forward.Z())
	pitch := math32.Asin(-c.forward.Y())

	yaw += dYaw
	pitch += dPitch
	if pitch > maxPitch {
		pitch = maxPitch
	}
	if pitch < -maxPitch {
		pitch = -maxPitch
	}

	cosPitch := math32.Cos(pitch)
	c.forward = mgl32.Vec3{
		math32.Sin(yaw) * cosPitch,
		-math32.Sin(pitch),
		math32.Cos(yaw) * cosPitch,
	}
}

// SetPosition teleports the camera, bypassing collision.
func (c *Controller) SetPosition(pos mgl32.Vec3) {
	c.position = pos
}

// Position returns the current camera position.
func (c *Controller) Position() mgl32.Vec3 {
	return c.position
}

// Forward returns the current unit forward vector.
func (c *Controller) Forward() mgl32.Vec3 {
	return c.forward
}

// ViewMatrix derives the camera view matrix for rendering.
func (c *Controller) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.forward), worldUp)
}

// AddPoseListener registers a per-frame pose observer.
func (c *Controller) AddPoseListener(fn PoseListener) {
	c.listeners = append(c.listeners, fn)
}

// Pose reports the current camera pose.
func (c *Controller) Pose() Pose {
	return poseFrom(c.position, c.forward)
}

// SetCloud installs a newly loaded cloud and schedules the index build
// off the frame loop. Movement keeps working uncollided until the build
// publishes. Each call bumps the build generation, so a build still in
// flight for a previous cloud is discarded instead of installed.
func (c *Controller) SetCloud(cloud *pointcloud.Cloud) {
	c.publishMu.Lock()
	gen := c.generation.Add(1)
	c.index.Store(nil)
	c.publishMu.Unlock()

	if cloud == nil {
		return
	}
	go c.buildIndex(cloud, gen)
}

func (c *Controller) buildIndex(cloud *pointcloud.Cloud, gen uint64) {
	defer func() {
		if r := recover(); r != nil {
			// Collision stays disabled for this cloud; navigation
			// continues unobstructed.
			c.log.Error("octree build panicked, collision disabled",
				zap.Any("panic", r),
				zap.String("cloud", cloud.ID.String()))
		}
	}()

	start := c.clk.Now()
	tree, err := octree.Build(cloud, c.cfg.MaxPointsPerLeaf, c.cfg.MaxIndexDepth)
	if err != nil {
		c.log.Error("octree build failed, collision disabled",
			zap.Error(err),
			zap.String("cloud", cloud.ID.String()))
		return
	}

	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if c.generation.Load() != gen {
		c.log.Info("discarding stale octree build",
			zap.String("cloud", cloud.ID.String()))
		return
	}
	c.index.Store(tree)

	s := tree.Stats()
	c.log.Info("octree ready",
		zap.String("cloud", cloud.ID.String()),
		zap.Int("points", s.PointCount),
		zap.Int("nodes", s.NodeCount),
		zap.Int("depth", s.MaxDepth),
		zap.Duration("build", c.clk.Since(start)))
}

// Index returns the published spatial index, or nil while it is not
// ready (or its build failed).
func (c *Controller) Index() *octree.Tree {
	return c.index.Load()
}

// IndexStats returns build diagnostics and whether an index is live.
func (c *Controller) IndexStats() (octree.Stats, bool) {
	tree := c.index.Load()
	if tree == nil {
		return octree.Stats{}, false
	}
	return tree.Stats(), true
}

// Advance steps the controller by the wall-clock time elapsed since the
// previous call, as measured by the injected clock.
func (c *Controller) Advance() {
	now := c.clk.Now()
	if c.lastStep.IsZero() {
		c.lastStep = now
		return
	}
	delta := float32(now.Sub(c.lastStep).Seconds())
	c.lastStep = now
	c.Update(delta)
}

// Update integrates one frame of held input over delta seconds and
// commits the collision-resolved camera position. All accumulation
// scales with delta, so the result is independent of frame rate.
func (c *Controller) Update(delta float32) {
	if delta <= 0 {
		return
	}

	c.movement.Integrate(c.input, delta)
	vF, vR, vV := c.movement.Velocities()

	speed := c.cfg.BaseSpeed
	if c.input.Sprint {
		speed *= c.cfg.SprintMultiplier
	}

	// Forward and right stay level: the Y component is zeroed so only
	// the explicit vertical axis leaves the walking plane. Diagonal
	// input is deliberately not normalized; held forward+strafe sums
	// both contributions.
	fwd := mgl32.Vec3{c.forward.X(), 0, c.forward.Z()}
	if fwd.Len() > 0 {
		fwd = fwd.Normalize()
	}
	right := fwd.Cross(worldUp)

	displacement := fwd.Mul(vF * speed * delta).
		Add(right.Mul(vR * speed * delta)).
		Add(worldUp.Mul(vV * speed * delta))

	c.position = c.resolver.Resolve(c.position, displacement, c.index.Load())

	if len(c.listeners) > 0 {
		pose := c.Pose()
		for _, fn := range c.listeners {
			fn(pose)
		}
	}
}
