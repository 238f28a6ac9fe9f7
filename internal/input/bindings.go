package input

import "github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"

// #region actions

// Action is one of the three logical controller actions the host can bind.
type Action string

const (
	ActionToggle   Action = "toggle"
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
)

// #endregion actions

// #region bindings

// Bindings maps key chords to logical actions.
type Bindings map[string]Action

// DefaultBindings returns the stock key layout.
func DefaultBindings() Bindings {
	return Bindings{
		"t": ActionToggle,
		"+": ActionIncrease,
		"=": ActionIncrease, // unshifted +
		"-": ActionDecrease,
	}
}

// #endregion bindings

// #region dispatcher

// Target is the controller surface the dispatcher drives.
type Target interface {
	ToggleEnabled()
	AdjustManual(convergence.Direction)
}

// Dispatcher routes key presses to controller actions.
type Dispatcher struct {
	bindings Bindings
	target   Target
}

// NewDispatcher creates a dispatcher over the given bindings.
func NewDispatcher(bindings Bindings, target Target) *Dispatcher {
	return &Dispatcher{bindings: bindings, target: target}
}

// Handle dispatches one key press. Returns false for unbound keys, which
// the caller passes through to the host.
func (d *Dispatcher) Handle(key string) bool {
	action, ok := d.bindings[key]
	if !ok {
		return false
	}
	switch action {
	case ActionToggle:
		d.target.ToggleEnabled()
	case ActionIncrease:
		d.target.AdjustManual(convergence.Increase)
	case ActionDecrease:
		d.target.AdjustManual(convergence.Decrease)
	}
	return true
}

// #endregion dispatcher
