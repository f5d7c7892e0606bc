// Package player integrates agent movement against the collision
// engine, one step per rendered frame. Hosts feed it a clock and input
// intent and consume the resulting pose; the algorithm lives here and
// nowhere else.
package player

import (
	gomath "math"

	"github.com/ZRosserMcIntosh/mast3r-slam-stella/internal/collision"
	"github.com/ZRosserMcIntosh/mast3r-slam-stella/pkg/math"
)

// Tuning holds the movement constants for one session. Passing it at
// construction keeps simulations deterministic and independently
// tunable per host.
type Tuning struct {
	// WalkSpeed is the horizontal speed in m/s.
	WalkSpeed float32

	// Gravity is the downward acceleration in m/s^2 (positive down).
	Gravity float32

	// JumpSpeed is the upward impulse in m/s, applied only while
	// grounded.
	JumpSpeed float32

	// LookSensitivity converts look-delta units to radians.
	LookSensitivity float32

	// MaxStep clamps the elapsed time per step in seconds, so a long
	// pause cannot launch the agent through geometry.
	MaxStep float32
}

// DefaultTuning returns the standard walking-pace constants.
func DefaultTuning() Tuning {
	return Tuning{
		WalkSpeed:       4.0,
		Gravity:         9.81,
		JumpSpeed:       4.5,
		LookSensitivity: 0.0025,
		MaxStep:         0.1,
	}
}

// Input is one frame of intent from the host.
type Input struct {
	// Move is the desired direction in the agent's local frame:
	// X strafes right, Y walks forward. Magnitude above 1 is
	// normalized away.
	Move math.Vec2

	// LookDelta turns the view (X = yaw, Y = pitch).
	LookDelta math.Vec2

	// Jump requests an upward impulse.
	Jump bool
}

// Pose is the agent state a host consumes after each step.
type Pose struct {
	// Position of the feet in world space.
	Position math.Vec3

	// Yaw in radians; 0 faces -Z, increasing to the right.
	Yaw float32

	// Pitch in radians, clamped short of straight up/down.
	Pitch float32
}

const maxPitch = 1.55

// Controller integrates one agent. It is not safe for concurrent use;
// the host calls Step from its frame loop thread.
type Controller struct {
	engine *collision.Engine
	tuning Tuning

	pos      math.Vec3 // feet
	yaw      float32
	pitch    float32
	velY     float32
	grounded bool
}

// New creates a controller at the spawn pose.
func New(engine *collision.Engine, tuning Tuning, spawn math.Vec3, yawDegrees float32) *Controller {
	return &Controller{
		engine: engine,
		tuning: tuning,
		pos:    spawn,
		yaw:    yawDegrees * gomath.Pi / 180,
	}
}

// Pose returns the current agent pose.
func (c *Controller) Pose() Pose {
	return Pose{Position: c.pos, Yaw: c.yaw, Pitch: c.pitch}
}

// EyePosition returns the camera anchor: the top of the capsule.
func (c *Controller) EyePosition() math.Vec3 {
	return c.pos.Add(math.Vec3{Y: c.engine.Capsule().Height})
}

// Grounded reports whether the agent rested on ground after the last
// step.
func (c *Controller) Grounded() bool {
	return c.grounded
}

// Step advances the simulation by dt seconds.
//
// Horizontal movement is resolved per axis: the X move and the Z move
// are tested independently against the capsule, each applied only when
// unobstructed, which slides the agent along walls instead of stopping
// it. Vertical velocity integrates under gravity unless grounded, and
// the position clamps to the ground height when falling onto it.
func (c *Controller) Step(dt float32, in Input) {
	if dt <= 0 {
		return
	}
	if c.tuning.MaxStep > 0 && dt > c.tuning.MaxStep {
		dt = c.tuning.MaxStep
	}

	c.look(in.LookDelta)
	c.moveHorizontal(dt, in.Move)
	c.moveVertical(dt, in.Jump)
}

func (c *Controller) look(delta math.Vec2) {
	c.yaw += delta.X * c.tuning.LookSensitivity
	c.pitch -= delta.Y * c.tuning.LookSensitivity
	if c.pitch > maxPitch {
		c.pitch = maxPitch
	}
	if c.pitch < -maxPitch {
		c.pitch = -maxPitch
	}
}

func (c *Controller) moveHorizontal(dt float32, move math.Vec2) {
	if move.IsZero() {
		return
	}
	if move.Length() > 1 {
		move = move.Normalize()
	}

	sin := float32(gomath.Sin(float64(c.yaw)))
	cos := float32(gomath.Cos(float64(c.yaw)))

	// Forward is -Z at yaw 0.
	dirX := cos*move.X + sin*move.Y
	dirZ := sin*move.X - cos*move.Y

	dx := dirX * c.tuning.WalkSpeed * dt
	dz := dirZ * c.tuning.WalkSpeed * dt

	// Each axis is tested with the other held fixed.
	if dx != 0 {
		candidate := c.pos.Add(math.Vec3{X: dx})
		if !c.engine.CapsuleBlocked(candidate) {
			c.pos = candidate
		}
	}
	if dz != 0 {
		candidate := c.pos.Add(math.Vec3{Z: dz})
		if !c.engine.CapsuleBlocked(candidate) {
			c.pos = candidate
		}
	}
}

func (c *Controller) moveVertical(dt float32, jump bool) {
	if jump && c.grounded {
		c.velY = c.tuning.JumpSpeed
		c.grounded = false
	}
	if !c.grounded {
		c.velY -= c.tuning.Gravity * dt
	}

	y := c.pos.Y + c.velY*dt
	ground := c.engine.GroundHeight(c.pos.X, c.pos.Z)

	switch {
	case c.velY <= 0 && y <= ground:
		y = ground
		c.velY = 0
		c.grounded = true
	case y > ground:
		c.grounded = false
	}
	c.pos = c.pos.WithY(y)
}
