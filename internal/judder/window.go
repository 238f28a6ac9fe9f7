package judder

// #region window
// Window keeps a bounded FIFO of recent popout samples and counts direction
// reversals inside it. A value that is still converging produces deltas of a
// single sign; a value caught in a feedback limit cycle flips sign repeatedly,
// and the reversal count is how the controller tells the two apart.
type Window struct {
	samples []float32
	size    int
}

// NewWindow creates a window holding at most size samples. A size below two
// disables detection (no pair of deltas can exist).
func NewWindow(size int) *Window {
	if size < 0 {
		size = 0
	}
	return &Window{
		samples: make([]float32, 0, size),
		size:    size,
	}
}
// #endregion window

// #region append
// Append pushes a sample, evicting the oldest when the window is full.
func (w *Window) Append(v float32) {
	if w.size == 0 {
		return
	}
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = v
		return
	}
	w.samples = append(w.samples, v)
}
// #endregion append

// #region sign-changes
// SignChanges counts how many times the sign of consecutive non-zero deltas
// flips across the window. Zero deltas are skipped so a settled value does
// not register as a reversal.
func (w *Window) SignChanges() int {
	var changes int
	var prevSign int
	for i := 1; i < len(w.samples); i++ {
		d := w.samples[i] - w.samples[i-1]
		var sign int
		switch {
		case d > 0:
			sign = 1
		case d < 0:
			sign = -1
		default:
			continue
		}
		if prevSign != 0 && sign != prevSign {
			changes++
		}
		prevSign = sign
	}
	return changes
}
// #endregion sign-changes

// #region accessors
// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return len(w.samples)
}

// Reset discards all samples. Called when the lock engages so the detector
// starts cold after release.
func (w *Window) Reset() {
	w.samples = w.samples[:0]
}
// #endregion accessors
