package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds the view/projection state shared by the 3D scenes. The
// projection follows the output aspect ratio; the eye orbits the origin
// on a closed-form time-driven path.
type Camera struct {
	fovY   float32
	near   float32
	far    float32
	aspect float32

	eye    mgl32.Vec3
	target mgl32.Vec3
}

// NewCamera creates a camera for the given output dimensions.
func NewCamera(width, height int) *Camera {
	c := &Camera{
		fovY:   math32.Pi / 3,
		near:   0.1,
		far:    300,
		target: mgl32.Vec3{0, 0, 0},
	}
	c.SetAspect(width, height)
	return c
}

// SetAspect updates the projection aspect ratio for new dimensions.
func (c *Camera) SetAspect(width, height int) {
	if height <= 0 {
		height = 1
	}
	c.aspect = float32(width) / float32(height)
}

// Orbit places the eye on a circular orbit of the given radius and
// height, at angle t radians.
func (c *Camera) Orbit(t, radius, height float32) {
	c.eye = mgl32.Vec3{
		math32.Cos(t) * radius,
		height,
		math32.Sin(t) * radius,
	}
}

// Eye returns the current eye position.
func (c *Camera) Eye() mgl32.Vec3 { return c.eye }

// ViewProj returns the combined view-projection matrix.
func (c *Camera) ViewProj() mgl32.Mat4 {
	proj := mgl32.Perspective(c.fovY, c.aspect, c.near, c.far)
	view := mgl32.LookAtV(c.eye, c.target, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
