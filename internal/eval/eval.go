// Package eval runs lightweight per-frame invariant checks on controller
// snapshots. The replay harness uses it to verify that a recorded or
// synthetic run never violates the bounds the renderer depends on.
package eval

import (
	"fmt"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
)

// #region types

// Check is a single named invariant result.
type Check struct {
	Name  string
	Value float64
	Pass  bool
}

// Result is the outcome of checking one frame.
type Result struct {
	Passed bool
	Checks []Check
	Reason string
}

// #endregion types

// #region checker

// Checker validates controller snapshots against the configured bounds.
type Checker struct {
	config convergence.Config
}

// NewChecker creates a checker for the given controller configuration.
func NewChecker(config convergence.Config) *Checker {
	return &Checker{config: config}
}

// Frame checks one snapshot. All checks run even after a failure so the
// report names everything that is wrong with the frame.
func (c *Checker) Frame(snap convergence.Snapshot) Result {
	var checks []Check
	passed := true
	var failReasons []string

	fail := func(name string, value float64, reason string) {
		checks = append(checks, Check{Name: name, Value: value, Pass: false})
		passed = false
		failReasons = append(failReasons, reason)
	}
	pass := func(name string, value float64) {
		checks = append(checks, Check{Name: name, Value: value, Pass: true})
	}

	// 1. Popout bounds: the renderer must never see a value outside range.
	cur := float64(snap.Current)
	if snap.Current < c.config.MinConvergence || snap.Current > c.config.MaxConvergence {
		fail("popout_bounds", cur,
			fmt.Sprintf("popout %.4f outside [%.4f, %.4f]", snap.Current, c.config.MinConvergence, c.config.MaxConvergence))
	} else {
		pass("popout_bounds", cur)
	}

	// 2. Target bounds.
	if snap.Target < c.config.MinConvergence || snap.Target > c.config.MaxConvergence {
		fail("target_bounds", float64(snap.Target),
			fmt.Sprintf("target %.4f outside [%.4f, %.4f]", snap.Target, c.config.MinConvergence, c.config.MaxConvergence))
	} else {
		pass("target_bounds", float64(snap.Target))
	}

	// 3. Lock floor: locked low pins the output at the lower bound.
	if snap.Mode == convergence.ModeLockedLow && snap.Current != c.config.MinConvergence {
		fail("lock_floor", cur,
			fmt.Sprintf("locked low but popout %.4f is off the floor %.4f", snap.Current, c.config.MinConvergence))
	} else {
		pass("lock_floor", cur)
	}

	// 4. Lock timer consistency.
	timer := float64(snap.LockRemaining)
	switch snap.Mode {
	case convergence.ModeLockedLow:
		if snap.LockRemaining <= 0 || snap.LockRemaining > c.config.LockDuration {
			fail("lock_timer", timer,
				fmt.Sprintf("locked with timer %.4f outside (0, %.4f]", snap.LockRemaining, c.config.LockDuration))
		} else {
			pass("lock_timer", timer)
		}
	default:
		if snap.LockRemaining != 0 {
			fail("lock_timer", timer, fmt.Sprintf("tracking with residual lock timer %.4f", snap.LockRemaining))
		} else {
			pass("lock_timer", timer)
		}
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return Result{
		Passed: passed,
		Checks: checks,
		Reason: reason,
	}
}

// #endregion checker
