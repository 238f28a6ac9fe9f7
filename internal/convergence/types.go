package convergence

// #region frame-sample
// FrameSample is the transient per-frame depth input, consumed and discarded.
// Intrusion is a normalized measure in [0, 1] of how far near geometry cuts
// into the popout volume: 0 means no occlusion risk, 1 means the nearest
// geometry sits at the camera.
type FrameSample struct {
	Intrusion    float32
	NearestDepth float32 // world-unit depth of the nearest relevant sample, informational
}
// #endregion frame-sample

// #region mode
// Mode is the controller's hysteresis state.
type Mode string

const (
	ModeTracking  Mode = "tracking"
	ModeLockedLow Mode = "locked_low"
)
// #endregion mode

// #region direction
// Direction selects which way a manual nudge moves the target.
type Direction int

const (
	Increase Direction = iota
	Decrease
)
// #endregion direction

// #region config
// Config holds the controller tunables. The config package validates these
// before construction; the controller itself never rejects a frame.
type Config struct {
	InitialPopout      float32
	MinConvergence     float32
	MaxConvergence     float32
	ConvergenceRate    float32 // popout units per second the ramp may move
	DeviationThreshold float32 // |target-current| at or below this counts as converged
	JudderWindow       int     // samples inspected for direction reversals
	JudderThreshold    int     // reversals above this engage the low lock
	LockDuration       float32 // seconds the low lock is held
	ManualStep         float32 // per-keypress nudge on the target
}

// DefaultConfig returns the tuning shipped with the fix.
func DefaultConfig() Config {
	return Config{
		InitialPopout:      0.3,
		MinConvergence:     0.0,
		MaxConvergence:     1.0,
		ConvergenceRate:    0.5,
		DeviationThreshold: 0.005,
		JudderWindow:       12,
		JudderThreshold:    4,
		LockDuration:       3.0,
		ManualStep:         0.05,
	}
}
// #endregion config

// #region snapshot
// Snapshot is a read-only view of the controller for tracing and inspection.
type Snapshot struct {
	Enabled       bool
	Mode          Mode
	Current       float32
	Target        float32
	ManualBias    float32
	LockRemaining float32
}
// #endregion snapshot

// #region lock-event
// LockEvent describes a hysteresis transition, delivered to the lock hook.
type LockEvent struct {
	Engaged     bool
	SignChanges int // reversal count that tripped the lock; zero on release
	Popout      float32
}
// #endregion lock-event
