package convergence

import (
	"testing"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/osd"
)

func testConfig() Config {
	return Config{
		InitialPopout:      0.3,
		MinConvergence:     0.0,
		MaxConvergence:     1.0,
		ConvergenceRate:    0.5,
		DeviationThreshold: 0.005,
		JudderWindow:       8,
		JudderThreshold:    3,
		LockDuration:       1.0,
		ManualStep:         0.05,
	}
}

const frameDT = float32(1.0 / 60.0)

func TestPopoutStaysWithinBounds(t *testing.T) {
	c := New(testConfig(), nil)
	samples := []FrameSample{
		{Intrusion: 0},
		{Intrusion: 1},
		{Intrusion: 0.5},
		{Intrusion: 2.5},  // out-of-range input, clamped
		{Intrusion: -1.0}, // out-of-range input, clamped
	}
	for i := 0; i < 200; i++ {
		got := c.Update(samples[i%len(samples)], frameDT)
		if got < 0.0 || got > 1.0 {
			t.Fatalf("frame %d: popout %.4f outside [0, 1]", i, got)
		}
	}
}

func TestUpdateIdempotentAtZeroDT(t *testing.T) {
	c := New(testConfig(), nil)
	sample := FrameSample{Intrusion: 0.2}
	c.Update(sample, frameDT)

	once := c.Update(sample, 0)
	before := c.Snapshot()
	twice := c.Update(sample, 0)
	if once != twice {
		t.Fatalf("dt=0 update not idempotent: %.6f vs %.6f", once, twice)
	}
	if c.Snapshot() != before {
		t.Fatal("dt=0 update mutated controller state")
	}
}

func TestDisabledUpdateReturnsFrozenValue(t *testing.T) {
	c := New(testConfig(), nil)
	for i := 0; i < 30; i++ {
		c.Update(FrameSample{Intrusion: 0}, frameDT)
	}
	frozen := c.Snapshot().Current

	c.ToggleEnabled()
	for i := 0; i < 30; i++ {
		if got := c.Update(FrameSample{Intrusion: 1}, frameDT); got != frozen {
			t.Fatalf("disabled update moved popout: %.4f != %.4f", got, frozen)
		}
	}
}

func TestToggleOffOnResumesWithoutJump(t *testing.T) {
	c := New(testConfig(), nil)
	for i := 0; i < 30; i++ {
		c.Update(FrameSample{Intrusion: 0}, frameDT)
	}
	before := c.Snapshot().Current

	c.ToggleEnabled()
	c.ToggleEnabled()

	snap := c.Snapshot()
	if snap.Current != before {
		t.Fatalf("toggle changed popout: %.4f != %.4f", snap.Current, before)
	}
	if snap.Target != before {
		t.Fatalf("re-enable should reset target to current: %.4f != %.4f", snap.Target, before)
	}

	// Tracking resumes rate-limited: one frame may move at most rate*dt.
	next := c.Update(FrameSample{Intrusion: 0}, frameDT)
	maxStep := testConfig().ConvergenceRate * frameDT
	if d := next - before; d < 0 || d > maxStep+1e-6 {
		t.Fatalf("post-toggle step %.5f exceeds rate limit %.5f", d, maxStep)
	}
}

// driveOscillation alternates the depth signal so the target flips every
// frame and the ramp reverses direction each update.
func driveOscillation(c *Controller, frames int) {
	for i := 0; i < frames; i++ {
		s := FrameSample{Intrusion: 0}
		if i%2 == 0 {
			s.Intrusion = 1
		}
		c.Update(s, frameDT)
	}
}

func TestOscillationEngagesLowLock(t *testing.T) {
	cfg := testConfig()
	c := New(cfg, nil)

	var events []LockEvent
	c.SetLockHook(func(e LockEvent) { events = append(events, e) })

	// Alternate the depth signal frame by frame until the reversal count
	// trips the lock. JudderThreshold+1 reversals need JudderThreshold+3
	// samples, so a couple of windows is more than enough.
	for i := 0; i < cfg.JudderWindow*2 && !c.IsLockedLow(); i++ {
		s := FrameSample{Intrusion: 0}
		if i%2 == 0 {
			s.Intrusion = 1
		}
		c.Update(s, frameDT)
	}
	if !c.IsLockedLow() {
		t.Fatal("expected lock after sustained oscillation")
	}
	if len(events) == 0 || !events[0].Engaged {
		t.Fatal("expected an engage lock event")
	}
	if events[0].SignChanges <= cfg.JudderThreshold {
		t.Fatalf("engage event sign changes %d should exceed threshold %d",
			events[0].SignChanges, cfg.JudderThreshold)
	}

	// Locked: output pinned at the floor for LockDuration of simulated time.
	lockedFrames := 0
	for c.IsLockedLow() {
		got := c.Update(FrameSample{Intrusion: 0}, frameDT)
		lockedFrames++
		if c.IsLockedLow() && got != cfg.MinConvergence {
			t.Fatalf("locked frame %d: popout %.4f, want floor %.4f", lockedFrames, got, cfg.MinConvergence)
		}
		if lockedFrames > 2*int(cfg.LockDuration/frameDT) {
			t.Fatal("lock never released")
		}
	}

	// Release lands on the frame that crosses LockDuration; allow one frame
	// of float32 accumulation slack.
	want := int(cfg.LockDuration / frameDT)
	if lockedFrames < want-1 || lockedFrames > want+1 {
		t.Fatalf("lock held for %d frames, want about %d", lockedFrames, want)
	}
	if len(events) != 2 || events[1].Engaged {
		t.Fatalf("expected a single release event, got %+v", events)
	}
}

func TestManualAdjustWhileLocked(t *testing.T) {
	cfg := testConfig()
	display := &osd.Capture{}
	c := New(cfg, display)
	driveOscillation(c, cfg.JudderWindow)
	if !c.IsLockedLow() {
		t.Fatal("setup: expected lock")
	}

	c.AdjustManual(Increase)
	if got := c.Snapshot().ManualBias; got != 0 {
		t.Fatalf("increase while locked should be ignored, bias %.4f", got)
	}
	if len(display.Values) != 0 {
		t.Fatal("ignored increase should not reach the display")
	}

	c.AdjustManual(Decrease)
	snap := c.Snapshot()
	if snap.ManualBias != -cfg.ManualStep {
		t.Fatalf("decrease while locked should be honored, bias %.4f", snap.ManualBias)
	}
	if got := c.Update(FrameSample{Intrusion: 0}, frameDT); got != cfg.MinConvergence {
		t.Fatalf("locked popout left the floor: %.4f", got)
	}
}

func TestManualAdjustDisplaysAndClamps(t *testing.T) {
	cfg := testConfig()
	display := &osd.Capture{}
	c := New(cfg, display)

	c.AdjustManual(Increase)
	if len(display.Values) != 1 {
		t.Fatalf("expected 1 displayed value, got %d", len(display.Values))
	}

	// Pile on decreases; the target must clamp at the lower bound.
	for i := 0; i < 100; i++ {
		c.AdjustManual(Decrease)
	}
	if got := c.Snapshot().Target; got != cfg.MinConvergence {
		t.Fatalf("target should clamp at %.4f, got %.4f", cfg.MinConvergence, got)
	}

	// Disabled controller ignores nudges entirely.
	c.ToggleEnabled()
	shown := len(display.Values)
	c.AdjustManual(Increase)
	if len(display.Values) != shown {
		t.Fatal("disabled controller should not display adjustments")
	}
}

func TestNoOcclusionRiskRampsMonotonicallyToCeiling(t *testing.T) {
	cfg := testConfig()
	c := New(cfg, nil)

	prev := cfg.InitialPopout
	for i := 0; i < 60; i++ {
		got := c.Update(FrameSample{Intrusion: 0}, frameDT)
		if got < prev {
			t.Fatalf("frame %d: popout fell %.4f -> %.4f under a clear signal", i, prev, got)
		}
		if got > cfg.MaxConvergence {
			t.Fatalf("frame %d: popout %.4f exceeds max %.4f", i, got, cfg.MaxConvergence)
		}
		prev = got
	}
	if prev <= cfg.InitialPopout {
		t.Fatalf("popout never rose from %.4f", cfg.InitialPopout)
	}
}

func TestOcclusionAvoidanceTakesPrecedence(t *testing.T) {
	cfg := testConfig()
	c := New(cfg, nil)

	// Full intrusion drives the target to the floor even though the
	// controller prefers maximum popout.
	c.Update(FrameSample{Intrusion: 1}, frameDT)
	if got := c.Snapshot().Target; got != cfg.MinConvergence {
		t.Fatalf("full intrusion target %.4f, want %.4f", got, cfg.MinConvergence)
	}
}
