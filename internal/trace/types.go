package trace

import "time"

// #region session
// SessionRecord describes one run of the controller.
type SessionRecord struct {
	SessionID  string
	StartedAt  time.Time
	EndedAt    time.Time // zero while the session is open
	ConfigJSON string
}
// #endregion session

// #region frame
// FrameRecord is one frame of controller output, enough to re-run the frame
// through a fresh controller later.
type FrameRecord struct {
	SessionID string
	Frame     int
	Intrusion float32
	DT        float32
	Popout    float32
	Target    float32
	Mode      string
	CreatedAt time.Time
}
// #endregion frame

// #region lock
// LockRecord is a hysteresis transition observed during a session.
type LockRecord struct {
	SessionID   string
	Frame       int
	Engaged     bool
	SignChanges int
	Popout      float32
	CreatedAt   time.Time
}
// #endregion lock

// #region stats
// SessionStats aggregates a session's frame log for inspection.
type SessionStats struct {
	Frames      int
	MinPopout   float32
	MaxPopout   float32
	LocksTotal  int
	LockedSpans int // engage events
}
// #endregion stats
