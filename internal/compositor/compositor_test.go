package compositor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/config"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/stereo"
)

func testCamera() config.Camera {
	return config.Camera{
		Separation: 0.06,
		Near:       0.1,
		Far:        1000,
		FOVHoriz:   90,
		FOVVert:    59,
	}
}

func TestApplyFrameMapsPopoutToConvergence(t *testing.T) {
	c := New(testCamera())

	c.ApplyFrame(0)
	if got := c.Convergence(); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("zero popout convergence = %g, want near plane 0.1", got)
	}

	c.ApplyFrame(0.5)
	if got := c.Convergence(); math.Abs(got-(0.1+0.5*ConvergenceSpan)) > 1e-6 {
		t.Fatalf("half popout convergence = %g", got)
	}
	if c.LastPopout() != 0.5 {
		t.Fatalf("last popout = %g, want 0.5", c.LastPopout())
	}
}

func TestApplyFrameBuildsEyeProjections(t *testing.T) {
	cam := testCamera()
	c := New(cam)
	left, right := c.ApplyFrame(0.3)

	wantLeft, wantRight := stereo.StereoProjections(
		cam.Near, cam.Far, cam.FOVHoriz, cam.FOVVert,
		cam.Separation, c.Convergence(),
	)
	if !mat.EqualApprox(left, wantLeft, 1e-12) {
		t.Fatal("left eye projection mismatch")
	}
	if !mat.EqualApprox(right, wantRight, 1e-12) {
		t.Fatal("right eye projection mismatch")
	}

	// The eyes must differ only in the stereo terms, and symmetrically.
	if got, want := left.At(2, 0), -right.At(2, 0); got != want {
		t.Fatalf("eye separation terms not mirrored: %g vs %g", got, want)
	}

	gotLeft, gotRight := c.Eyes()
	if !mat.EqualApprox(gotLeft, left, 0) || !mat.EqualApprox(gotRight, right, 0) {
		t.Fatal("Eyes should return the last applied projections")
	}
}

func TestEyesRecoverCameraPlanes(t *testing.T) {
	cam := testCamera()
	c := New(cam)
	left, _ := c.ApplyFrame(0.7)

	near, far, err := stereo.FindNearFar(left)
	if err != nil {
		t.Fatalf("find near/far: %v", err)
	}
	if math.Abs(near-cam.Near) > 1e-9 || math.Abs(far-cam.Far) > 1e-6 {
		t.Fatalf("recovered planes (%g, %g), want (%g, %g)", near, far, cam.Near, cam.Far)
	}
}
