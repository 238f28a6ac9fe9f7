package osd

import "log"

// #region display
// Display receives the popout value whenever a manual adjustment changes it.
// The host's presentation layer implements this; the controller only pushes
// text-worthy values through it.
type Display interface {
	ShowPopout(value float32)
}
// #endregion display

// #region log-display
// LogDisplay writes the value through the standard logger, standing in for
// an on-screen overlay when running headless.
type LogDisplay struct{}

func (LogDisplay) ShowPopout(value float32) {
	log.Printf("[OSD] popout %.3f", value)
}
// #endregion log-display

// #region capture
// Capture records shown values for tests and the replay harness.
type Capture struct {
	Values []float32
}

func (c *Capture) ShowPopout(value float32) {
	c.Values = append(c.Values, value)
}
// #endregion capture
