// Package camera provides the cameras that feed the light culler.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// Projection describes a perspective lens. The aspect ratio comes from the
// viewport at the time the matrices are built.
type Projection struct {
	FOV  float32 // Vertical field of view (radians)
	Near float32
	Far  float32
}

// DefaultProjection returns a 60 degree lens with a 1000 unit far plane.
func DefaultProjection() Projection {
	return Projection{
		FOV:  Radians(60),
		Near: 0.1,
		Far:  1000,
	}
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * gomath.Pi / 180
}

// Matrix returns the projection matrix for a width x height viewport.
func (p Projection) Matrix(width, height int) math.Mat4 {
	aspect := float32(max(width, 1)) / float32(max(height, 1))
	return math.Perspective(p.FOV, aspect, p.Near, p.Far)
}

// Matrices returns the projection matrix and its inverse.
func (p Projection) Matrices(width, height int) (proj, inv math.Mat4) {
	proj = p.Matrix(width, height)
	return proj, proj.Inverse()
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Vertical angle (radians)
	Yaw      float32 // Horizontal angle (radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// AutoYaw spins the camera around the center (radians per second).
	AutoYaw float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        40.0,
		Pitch:           0.5,
		Yaw:             0.0,
		MinDistance:     1.0,
		MaxDistance:     2000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// NewOrbitCameraAt creates an orbit camera placed at eye, looking at target.
func NewOrbitCameraAt(eye, target math.Vec3) *OrbitCamera {
	c := NewOrbitCamera()
	c.Center = target

	offset := eye.Sub(target)
	d := offset.Length()
	if d < 1e-6 {
		return c
	}
	c.Distance = max(d, c.MinDistance)
	c.MaxDistance = max(c.MaxDistance, c.Distance)
	c.Pitch = float32(gomath.Asin(float64(offset.Y / d)))
	c.Yaw = float32(gomath.Atan2(float64(offset.X), float64(offset.Z)))
	c.clampPitch()
	return c
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.Pitch))*gomath.Sin(float64(c.Yaw)))
	y := c.Distance * float32(gomath.Sin(float64(c.Pitch)))
	z := c.Distance * float32(gomath.Cos(float64(c.Pitch))*gomath.Cos(float64(c.Yaw)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center, up)
}

// Update advances the automatic orbit by dt seconds.
func (c *OrbitCamera) Update(dt float32) {
	if c.AutoYaw == 0 {
		return
	}
	c.Yaw = float32(gomath.Mod(float64(c.Yaw+c.AutoYaw*dt), 2*gomath.Pi))
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.clampPitch()
}

func (c *OrbitCamera) clampPitch() {
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// HandleMovement pans the camera center point based on keyboard input.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	dirX := float32(gomath.Sin(float64(c.Yaw)))
	dirZ := float32(gomath.Cos(float64(c.Yaw)))

	rightX := float32(gomath.Cos(float64(c.Yaw)))
	rightZ := float32(-gomath.Sin(float64(c.Yaw)))

	// Negate forward so W moves "into" the scene
	c.Center.X += (-dirX*forward + rightX*right) * speed
	c.Center.Z += (-dirZ*forward + rightZ*right) * speed
	c.Center.Y += up * speed
}

// FitToBounds centers the camera on a bounding box and backs off far enough
// to see it.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Add(hi).Scale(0.5)

	size := hi.Sub(lo)
	maxSize := size.X
	if size.Z > maxSize {
		maxSize = size.Z
	}

	c.Distance = maxSize
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}

	c.Pitch = 0.6 // Look down at ~35 degrees
	c.Yaw = 0.0
}
