package replay

import (
	"fmt"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/eval"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/trace"
)

// #region results

// FrameResult captures the outcome of replaying one frame.
type FrameResult struct {
	Frame  int
	Popout float32
	Target float32
	Mode   convergence.Mode
	Eval   eval.Result

	// ExpectationErr is non-empty when a fixture expectation for this frame
	// was not met.
	ExpectationErr string
}

// Summary aggregates a replay run.
type Summary struct {
	Frames           int
	LocksEngaged     int
	EvalFailures     int
	ExpectationFails int
	FinalPopout      float32
	FinalMode        convergence.Mode
}

// Divergence is one frame where a DB replay disagreed with the recording.
type Divergence struct {
	Frame          int
	RecordedPopout float32
	ReplayedPopout float32
	RecordedMode   string
	ReplayedMode   string
}

// #endregion results

// #region harness

// Harness replays recorded or scripted frame inputs through a fresh
// controller and checks invariants along the way.
type Harness struct {
	controller *convergence.Controller
	checker    *eval.Checker
	locks      int
}

// NewHarness creates a harness over a new controller with the given config.
func NewHarness(config convergence.Config) *Harness {
	h := &Harness{
		controller: convergence.New(config, nil),
		checker:    eval.NewChecker(config),
	}
	h.controller.SetLockHook(func(e convergence.LockEvent) {
		if e.Engaged {
			h.locks++
		}
	})
	return h
}

// Run replays scripted frames, applying each frame's action before its
// update and checking any expectation registered for that frame number.
func (h *Harness) Run(frames []FixtureFrame, expected []FixtureExpectation) ([]FrameResult, Summary) {
	expectations := make(map[int]FixtureExpectation, len(expected))
	for _, e := range expected {
		expectations[e.Frame] = e
	}

	results := make([]FrameResult, 0, len(frames))
	var summary Summary

	for _, f := range frames {
		switch f.Action {
		case "toggle":
			h.controller.ToggleEnabled()
		case "increase":
			h.controller.AdjustManual(convergence.Increase)
		case "decrease":
			h.controller.AdjustManual(convergence.Decrease)
		}

		popout := h.controller.Update(convergence.FrameSample{Intrusion: f.Intrusion}, f.DT)
		snap := h.controller.Snapshot()
		res := FrameResult{
			Frame:  f.Frame,
			Popout: popout,
			Target: snap.Target,
			Mode:   snap.Mode,
			Eval:   h.checker.Frame(snap),
		}
		if !res.Eval.Passed {
			summary.EvalFailures++
		}
		if exp, ok := expectations[f.Frame]; ok {
			if msg := checkExpectation(exp, res); msg != "" {
				res.ExpectationErr = msg
				summary.ExpectationFails++
			}
		}
		results = append(results, res)
	}

	summary.Frames = len(results)
	summary.LocksEngaged = h.locks
	if len(results) > 0 {
		last := results[len(results)-1]
		summary.FinalPopout = last.Popout
		summary.FinalMode = last.Mode
	}
	return results, summary
}

func checkExpectation(exp FixtureExpectation, res FrameResult) string {
	if exp.Mode != "" && string(res.Mode) != exp.Mode {
		return fmt.Sprintf("frame %d: mode %s, want %s", res.Frame, res.Mode, exp.Mode)
	}
	if exp.MinPopout != nil && res.Popout < *exp.MinPopout {
		return fmt.Sprintf("frame %d: popout %.4f below %.4f", res.Frame, res.Popout, *exp.MinPopout)
	}
	if exp.MaxPopout != nil && res.Popout > *exp.MaxPopout {
		return fmt.Sprintf("frame %d: popout %.4f above %.4f", res.Frame, res.Popout, *exp.MaxPopout)
	}
	return ""
}

// #endregion harness

// #region fixture-run

// RunFixture replays a loaded fixture end to end.
func RunFixture(f *Fixture) ([]FrameResult, Summary) {
	h := NewHarness(f.Tunables.ToConfig())
	return h.Run(f.Frames, f.Expected)
}

// #endregion fixture-run

// #region db-run

// RunSession re-runs a recorded session's inputs through a fresh controller
// and reports frames where the replay diverges from the recording. The
// recorded config is taken from the caller since sessions store it as JSON.
func RunSession(store *trace.Store, sessionID string, config convergence.Config) ([]Divergence, Summary, error) {
	frames, err := store.FramesForSession(sessionID)
	if err != nil {
		return nil, Summary{}, err
	}
	if len(frames) == 0 {
		return nil, Summary{}, fmt.Errorf("session %s has no frames", sessionID)
	}

	h := NewHarness(config)
	var divergences []Divergence
	var summary Summary

	for _, rec := range frames {
		popout := h.controller.Update(convergence.FrameSample{Intrusion: rec.Intrusion}, rec.DT)
		snap := h.controller.Snapshot()
		if !h.checker.Frame(snap).Passed {
			summary.EvalFailures++
		}
		if !approxEqual(popout, rec.Popout) || string(snap.Mode) != rec.Mode {
			divergences = append(divergences, Divergence{
				Frame:          rec.Frame,
				RecordedPopout: rec.Popout,
				ReplayedPopout: popout,
				RecordedMode:   rec.Mode,
				ReplayedMode:   string(snap.Mode),
			})
		}
		summary.Frames++
		summary.FinalPopout = popout
		summary.FinalMode = snap.Mode
	}
	summary.LocksEngaged = h.locks

	return divergences, summary, nil
}

// approxEqual absorbs the float32 round-trip through SQLite's REAL columns.
func approxEqual(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-5
}

// #endregion db-run
