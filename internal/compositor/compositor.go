package compositor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/config"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/stereo"
)

// #region compositor

// Compositor is the stereo output sink: it accepts the controller's popout
// value each frame and turns it into the per-eye projection matrices the
// renderer consumes. The popout value maps linearly onto the convergence
// distance between the near plane and ConvergenceSpan camera units out.
type Compositor struct {
	camera config.Camera

	lastPopout  float32
	convergence float64
	left, right *mat.Dense
}

// ConvergenceSpan is how many camera units a full-scale popout pushes the
// convergence plane past the near plane.
const ConvergenceSpan = 10.0

// New creates a compositor and primes it with a zero popout.
func New(camera config.Camera) *Compositor {
	c := &Compositor{camera: camera}
	c.ApplyFrame(0)
	return c
}

// #endregion compositor

// #region apply-frame

// ApplyFrame applies a popout value as the active convergence for this
// frame and rebuilds the eye projections. The returned matrices are owned by
// the compositor and valid until the next call.
func (c *Compositor) ApplyFrame(popout float32) (left, right *mat.Dense) {
	c.lastPopout = popout
	c.convergence = c.camera.Near + float64(popout)*ConvergenceSpan
	c.left, c.right = stereo.StereoProjections(
		c.camera.Near, c.camera.Far,
		c.camera.FOVHoriz, c.camera.FOVVert,
		c.camera.Separation, c.convergence,
	)
	return c.left, c.right
}

// #endregion apply-frame

// #region accessors

// Convergence returns the last applied convergence distance in camera units.
func (c *Compositor) Convergence() float64 {
	return c.convergence
}

// LastPopout returns the last popout value applied. While the controller is
// disabled the host keeps calling ApplyFrame with this frozen value.
func (c *Compositor) LastPopout() float32 {
	return c.lastPopout
}

// Eyes returns the current per-eye projection matrices.
func (c *Compositor) Eyes() (left, right *mat.Dense) {
	return c.left, c.right
}

// #endregion accessors
