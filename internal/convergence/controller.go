package convergence

import (
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/judder"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/osd"
)

// #region controller-struct

// Controller maintains a smoothed, bounded popout value that tracks the
// per-frame depth signal, replacing manual convergence tuning. It owns its
// state exclusively and is driven once per frame from the host's loop;
// manual nudges and the enable toggle arrive on the same thread.
type Controller struct {
	config  Config
	display osd.Display
	window  *judder.Window

	enabled         bool
	mode            Mode
	current         float32
	target          float32
	manualBias      float32
	lastDepthTarget float32
	lockTimer       float32

	lockHook func(LockEvent)
}

// #endregion controller-struct

// #region constructor

// New creates an enabled controller at the configured initial popout.
// display may be nil (manual adjustments are then silent).
func New(config Config, display osd.Display) *Controller {
	c := &Controller{
		config:  config,
		display: display,
		window:  judder.NewWindow(config.JudderWindow),
		enabled: true,
		mode:    ModeTracking,
	}
	c.current = c.clamp(config.InitialPopout)
	c.target = c.current
	c.lastDepthTarget = c.current
	return c
}

// SetLockHook registers a callback for hysteresis transitions. Used by the
// frame loop to record lock events; nil clears it.
func (c *Controller) SetLockHook(fn func(LockEvent)) {
	c.lockHook = fn
}

// #endregion constructor

// #region update

// Update advances the controller by one frame: recomputes the target from
// the depth signal, ramps the current popout toward it, and runs judder
// detection. Returns the popout value to apply this frame. When disabled it
// is a no-op returning the last value.
func (c *Controller) Update(sample FrameSample, dt float32) float32 {
	if !c.enabled {
		return c.current
	}

	if c.mode == ModeLockedLow {
		c.lockTimer -= dt
		if c.lockTimer <= 0 {
			c.releaseLock()
		}
	}

	if c.mode == ModeLockedLow {
		// Invariant: while locked the output is pinned at the floor. The
		// window stays cold so release does not immediately re-trip.
		c.target = c.config.MinConvergence
		c.current = c.config.MinConvergence
		return c.current
	}

	c.lastDepthTarget = c.depthTarget(sample)
	c.target = c.clamp(c.lastDepthTarget + c.manualBias)

	c.ramp(dt)

	c.window.Append(c.current)
	if flips := c.window.SignChanges(); flips > c.config.JudderThreshold {
		c.engageLock(flips)
	}

	return c.current
}

// depthTarget maps intrusion to this frame's target. The occlusion-avoidance
// cap bounds the maximum-popout preference from above, so when both apply in
// the same frame visibility wins over effect strength.
func (c *Controller) depthTarget(sample FrameSample) float32 {
	intrusion := clampRange(sample.Intrusion, 0, 1)
	span := c.config.MaxConvergence - c.config.MinConvergence
	return c.config.MaxConvergence - intrusion*span
}

// ramp moves current toward target by at most ConvergenceRate*dt, never
// overshooting. Deviations at or below the threshold are treated as
// converged so the output does not chase noise.
func (c *Controller) ramp(dt float32) {
	diff := c.target - c.current
	mag := diff
	if mag < 0 {
		mag = -mag
	}
	if mag <= c.config.DeviationThreshold {
		return
	}
	step := c.config.ConvergenceRate * dt
	if step > mag {
		step = mag
	}
	if diff < 0 {
		step = -step
	}
	c.current = c.clamp(c.current + step)
}

// #endregion update

// #region lock

func (c *Controller) engageLock(signChanges int) {
	c.mode = ModeLockedLow
	c.lockTimer = c.config.LockDuration
	c.target = c.config.MinConvergence
	c.current = c.config.MinConvergence
	c.window.Reset()
	if c.lockHook != nil {
		c.lockHook(LockEvent{Engaged: true, SignChanges: signChanges, Popout: c.current})
	}
}

func (c *Controller) releaseLock() {
	c.mode = ModeTracking
	c.lockTimer = 0
	c.window.Reset()
	if c.lockHook != nil {
		c.lockHook(LockEvent{Engaged: false, Popout: c.current})
	}
}

// IsLockedLow reports whether the anti-judder lock is holding the output at
// the lower bound.
func (c *Controller) IsLockedLow() bool {
	return c.mode == ModeLockedLow
}

// #endregion lock

// #region toggle

// ToggleEnabled flips the controller on or off. Turning off freezes the
// current popout for the renderer to keep using statically. Turning back on
// resets the target to the frozen value so tracking resumes without a jump,
// and clears the lock, manual bias, and detection window.
func (c *Controller) ToggleEnabled() {
	c.enabled = !c.enabled
	if !c.enabled {
		return
	}
	c.target = c.current
	c.lastDepthTarget = c.current
	c.manualBias = 0
	c.mode = ModeTracking
	c.lockTimer = 0
	c.window.Reset()
}

// Enabled reports whether the controller is driving the popout.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// #endregion toggle

// #region manual

// AdjustManual nudges the target by ManualStep in the given direction,
// persisting as a bias on the depth-derived target. Only valid while
// enabled. While locked low an increase is ignored; a decrease is honored
// but the output stays clamped at the floor.
func (c *Controller) AdjustManual(dir Direction) {
	if !c.enabled {
		return
	}
	if c.mode == ModeLockedLow && dir == Increase {
		return
	}
	step := c.config.ManualStep
	if dir == Decrease {
		step = -step
	}
	span := c.config.MaxConvergence - c.config.MinConvergence
	c.manualBias = clampRange(c.manualBias+step, -span, span)
	if c.mode == ModeTracking {
		c.target = c.clamp(c.lastDepthTarget + c.manualBias)
	}
	if c.display != nil {
		c.display.ShowPopout(c.target)
	}
}

// #endregion manual

// #region snapshot

// Snapshot returns a read-only view of the controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Enabled:       c.enabled,
		Mode:          c.mode,
		Current:       c.current,
		Target:        c.target,
		ManualBias:    c.manualBias,
		LockRemaining: c.lockTimer,
	}
}

// #endregion snapshot

// #region helpers

func (c *Controller) clamp(v float32) float32 {
	return clampRange(v, c.config.MinConvergence, c.config.MaxConvergence)
}

func clampRange(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
