package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a tunables
// block, a frame script, and optional per-frame expectations.
type Fixture struct {
	Description string               `json:"description"`
	Tunables    FixtureTunables      `json:"tunables"`
	Frames      []FixtureFrame       `json:"frames"`
	Expected    []FixtureExpectation `json:"expected,omitempty"`
}

// FixtureTunables mirrors convergence.Config with JSON tags.
type FixtureTunables struct {
	InitialPopout      float32 `json:"initial_popout"`
	MinConvergence     float32 `json:"min_convergence"`
	MaxConvergence     float32 `json:"max_convergence"`
	ConvergenceRate    float32 `json:"convergence_rate"`
	DeviationThreshold float32 `json:"popout_deviation_threshold"`
	JudderWindow       int     `json:"judder_detection_window"`
	JudderThreshold    int     `json:"judder_threshold"`
	LockDuration       float32 `json:"lock_duration_seconds"`
	ManualStep         float32 `json:"manual_step_size"`
}

// FixtureFrame is one scripted frame. Action, when set, runs before the
// update: "toggle", "increase", or "decrease".
type FixtureFrame struct {
	Frame     int     `json:"frame"`
	Intrusion float32 `json:"intrusion"`
	DT        float32 `json:"dt"`
	Action    string  `json:"action,omitempty"`
}

// FixtureExpectation pins down the outcome of a single frame. Nil bounds are
// unchecked.
type FixtureExpectation struct {
	Frame     int      `json:"frame"`
	Mode      string   `json:"mode,omitempty"`
	MinPopout *float32 `json:"min_popout,omitempty"`
	MaxPopout *float32 `json:"max_popout,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToConfig converts the fixture tunables to a controller config.
func (ft FixtureTunables) ToConfig() convergence.Config {
	return convergence.Config{
		InitialPopout:      ft.InitialPopout,
		MinConvergence:     ft.MinConvergence,
		MaxConvergence:     ft.MaxConvergence,
		ConvergenceRate:    ft.ConvergenceRate,
		DeviationThreshold: ft.DeviationThreshold,
		JudderWindow:       ft.JudderWindow,
		JudderThreshold:    ft.JudderThreshold,
		LockDuration:       ft.LockDuration,
		ManualStep:         ft.ManualStep,
	}
}

// TunablesFromConfig converts a controller config to fixture form, used by
// the fixture exporter.
func TunablesFromConfig(c convergence.Config) FixtureTunables {
	return FixtureTunables{
		InitialPopout:      c.InitialPopout,
		MinConvergence:     c.MinConvergence,
		MaxConvergence:     c.MaxConvergence,
		ConvergenceRate:    c.ConvergenceRate,
		DeviationThreshold: c.DeviationThreshold,
		JudderWindow:       c.JudderWindow,
		JudderThreshold:    c.JudderThreshold,
		LockDuration:       c.LockDuration,
		ManualStep:         c.ManualStep,
	}
}

// #endregion fixture-loader
