// Package stereo provides the projection matrix math behind the stereo
// correction: per-eye projection construction, correction multipliers for
// composite matrices, and recovery of camera parameters from a captured
// projection.
//
// All matrices use the row-vector convention (v' = v * M), matching how the
// transforms compose in shader assembly.
package stereo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// #region basic-transforms

// Translate returns a translation matrix.
func Translate(x, y, z float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	})
}

// Scale returns a scaling matrix.
func Scale(x, y, z float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	})
}

// RotateX returns a rotation about the X axis. angle is in degrees.
func RotateX(angle float64) *mat.Dense {
	s, c := math.Sincos(angle * math.Pi / 180)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	})
}

// RotateY returns a rotation about the Y axis. angle is in degrees.
func RotateY(angle float64) *mat.Dense {
	s, c := math.Sincos(angle * math.Pi / 180)
	return mat.NewDense(4, 4, []float64{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotateZ returns a rotation about the Z axis. angle is in degrees.
func RotateZ(angle float64) *mat.Dense {
	s, c := math.Sincos(angle * math.Pi / 180)
	return mat.NewDense(4, 4, []float64{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// #endregion basic-transforms

// #region projection

// Projection returns a left-handed perspective projection. FOV angles are in
// degrees.
func Projection(near, far, fovHoriz, fovVert float64) *mat.Dense {
	w := 1 / math.Tan(fovHoriz*math.Pi/360)
	h := 1 / math.Tan(fovVert*math.Pi/360)
	q := far / (far - near)
	return mat.NewDense(4, 4, []float64{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, q, 1,
		0, 0, -q * near, 0,
	})
}

// StereoProjections returns the left/right eye projection pair with the
// stereo adjustment built in, so the familiar separation and convergence
// settings behave as they do in the driver's own stereo path.
func StereoProjections(near, far, fovHoriz, fovVert, separation, convergence float64) (left, right *mat.Dense) {
	w := 1 / math.Tan(fovHoriz*math.Pi/360)
	h := 1 / math.Tan(fovVert*math.Pi/360)
	q := far / (far - near)

	left = mat.NewDense(4, 4, []float64{
		w, 0, 0, 0,
		0, h, 0, 0,
		-separation, 0, q, 1,
		separation * convergence, 0, -q * near, 0,
	})
	right = mat.NewDense(4, 4, []float64{
		w, 0, 0, 0,
		0, h, 0, 0,
		separation, 0, q, 1,
		-separation * convergence, 0, -q * near, 0,
	})
	return left, right
}

// #endregion projection

// #region correction-multiplier

// CorrectionMultiplier returns the matrix that adds a stereo correction when
// multiplied onto a projection matrix, including a composite MVP or VP
// matrix. Multiplying Projection by the multiplier for +separation yields
// the right-eye matrix; negate separation for the left eye.
func CorrectionMultiplier(near, far, separation, convergence float64) *mat.Dense {
	q := far / (far - near)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		(separation * convergence) / (q * near), 0, 1, 0,
		separation - (separation*convergence)/near, 0, 0, 1,
	})
}

// CorrectionMultiplierInverse removes a stereo correction from an inverted
// MV or MVP matrix. It simplifies to a negation of the forward multiplier's
// off-diagonal terms.
func CorrectionMultiplierInverse(near, far, separation, convergence float64) *mat.Dense {
	q := far / (far - near)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		-(separation * convergence) / (q * near), 0, 1, 0,
		-separation + (separation*convergence)/near, 0, 0, 1,
	})
}

// #endregion correction-multiplier

// #region recovery

// FindNearFar recovers the near and far clipping planes from a projection
// matrix, or a composite matrix containing one.
func FindNearFar(m *mat.Dense) (near, far float64, err error) {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return 0, 0, fmt.Errorf("invert projection: %w", err)
	}

	near, err = planeDepth([4]float64{0, 0, 0, 1}, &inv, m)
	if err != nil {
		return 0, 0, err
	}
	far, err = planeDepth([4]float64{0, 0, 1, 1}, &inv, m)
	if err != nil {
		return 0, 0, err
	}
	return near, far, nil
}

// planeDepth pulls a clip-space point back through the inverse projection,
// normalizes it, and reads off the view depth it projects back to.
func planeDepth(clip [4]float64, inv, m *mat.Dense) (float64, error) {
	p := mulRowVec(clip, inv)
	if p[3] == 0 {
		return 0, errors.New("degenerate clip-space point")
	}
	for i := range p {
		p[i] /= p[3]
	}
	return mulRowVec(p, m)[3], nil
}

// FOVHorizontal recovers the horizontal field of view in degrees.
func FOVHorizontal(m *mat.Dense) float64 {
	return 2 * math.Atan(1/m.At(0, 0)) * 180 / math.Pi
}

// FOVVertical recovers the vertical field of view in degrees.
func FOVVertical(m *mat.Dense) float64 {
	return 2 * math.Atan(1/m.At(1, 1)) * 180 / math.Pi
}

// #endregion recovery

// #region vertex-correction

// Adjustment is the driver's stereo formula: the clip-space X offset applied
// to a vertex at depth w.
func Adjustment(w, separation, convergence float64) float64 {
	return separation * (w - convergence)
}

// Correct applies the stereo adjustment to a clip-space coordinate,
// returning the left and right eye positions.
func Correct(coord [4]float64, separation, convergence float64) (left, right [4]float64) {
	a := Adjustment(coord[3], separation, convergence)
	left = coord
	right = coord
	left[0] -= a
	right[0] += a
	return left, right
}

// #endregion vertex-correction

// #region helpers

// mulRowVec computes v * m for a 1x4 row vector.
func mulRowVec(v [4]float64, m *mat.Dense) [4]float64 {
	var r [4]float64
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			r[col] += v[row] * m.At(row, col)
		}
	}
	return r
}

// #endregion helpers
