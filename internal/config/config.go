// Package config loads and validates the controller tunables.
//
// Tunables live in a YAML file loaded once at startup. Validation happens
// eagerly here, outside the per-frame hot path: a bad file is fatal to
// controller initialization only, and the host falls back to static
// convergence.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
	"gopkg.in/yaml.v3"
)

// #region errors

// ErrInvalid marks configuration validation failures so callers can
// distinguish them from file I/O errors.
var ErrInvalid = errors.New("invalid tunables")

// #endregion errors

// #region tunables

// Camera holds the stereo camera parameters the compositor needs.
type Camera struct {
	Separation float64 `yaml:"separation"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`
	FOVHoriz   float64 `yaml:"fov_horiz"`
	FOVVert    float64 `yaml:"fov_vert"`
}

// Tunables is the external configuration, read-only to the controller.
type Tunables struct {
	InitialPopout      float32 `yaml:"initial_popout"`
	MinConvergence     float32 `yaml:"min_convergence"`
	MaxConvergence     float32 `yaml:"max_convergence"`
	ConvergenceRate    float32 `yaml:"convergence_rate"`
	DeviationThreshold float32 `yaml:"popout_deviation_threshold"`
	JudderWindow       int     `yaml:"judder_detection_window"`
	JudderThreshold    int     `yaml:"judder_threshold"`
	LockDuration       float32 `yaml:"lock_duration_seconds"`
	ManualStep         float32 `yaml:"manual_step_size"`

	Camera Camera `yaml:"camera"`
}

// Default returns the tuning shipped with the fix.
func Default() Tunables {
	cc := convergence.DefaultConfig()
	return Tunables{
		InitialPopout:      cc.InitialPopout,
		MinConvergence:     cc.MinConvergence,
		MaxConvergence:     cc.MaxConvergence,
		ConvergenceRate:    cc.ConvergenceRate,
		DeviationThreshold: cc.DeviationThreshold,
		JudderWindow:       cc.JudderWindow,
		JudderThreshold:    cc.JudderThreshold,
		LockDuration:       cc.LockDuration,
		ManualStep:         cc.ManualStep,
		Camera: Camera{
			Separation: 0.06,
			Near:       0.1,
			Far:        1000,
			FOVHoriz:   90,
			FOVVert:    59,
		},
	}
}

// #endregion tunables

// #region load

// Load reads tunables from a YAML file. A missing file returns the defaults
// (not an error); anything else that fails to parse or validate does.
func Load(path string) (Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Tunables{}, fmt.Errorf("read tunables: %w", err)
	}

	t := Default()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tunables{}, fmt.Errorf("parse tunables %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tunables{}, err
	}
	return t, nil
}

// #endregion load

// #region validate

// Validate checks bounds ordering and the positivity constraints the
// per-frame logic assumes. All failures wrap ErrInvalid.
func (t Tunables) Validate() error {
	if t.MinConvergence > t.MaxConvergence {
		return fmt.Errorf("%w: min_convergence %.4f exceeds max_convergence %.4f",
			ErrInvalid, t.MinConvergence, t.MaxConvergence)
	}
	if t.InitialPopout < t.MinConvergence || t.InitialPopout > t.MaxConvergence {
		return fmt.Errorf("%w: initial_popout %.4f outside [%.4f, %.4f]",
			ErrInvalid, t.InitialPopout, t.MinConvergence, t.MaxConvergence)
	}
	if t.ConvergenceRate <= 0 {
		return fmt.Errorf("%w: convergence_rate must be positive, got %.4f", ErrInvalid, t.ConvergenceRate)
	}
	if t.DeviationThreshold < 0 {
		return fmt.Errorf("%w: popout_deviation_threshold must not be negative, got %.4f",
			ErrInvalid, t.DeviationThreshold)
	}
	if t.JudderWindow < 3 {
		return fmt.Errorf("%w: judder_detection_window must be at least 3, got %d", ErrInvalid, t.JudderWindow)
	}
	if t.JudderThreshold < 1 {
		return fmt.Errorf("%w: judder_threshold must be at least 1, got %d", ErrInvalid, t.JudderThreshold)
	}
	if t.LockDuration <= 0 {
		return fmt.Errorf("%w: lock_duration_seconds must be positive, got %.4f", ErrInvalid, t.LockDuration)
	}
	if t.ManualStep <= 0 {
		return fmt.Errorf("%w: manual_step_size must be positive, got %.4f", ErrInvalid, t.ManualStep)
	}
	if t.Camera.Near <= 0 || t.Camera.Far <= t.Camera.Near {
		return fmt.Errorf("%w: camera planes need 0 < near < far, got near=%.4f far=%.4f",
			ErrInvalid, t.Camera.Near, t.Camera.Far)
	}
	if t.Camera.FOVHoriz <= 0 || t.Camera.FOVHoriz >= 180 || t.Camera.FOVVert <= 0 || t.Camera.FOVVert >= 180 {
		return fmt.Errorf("%w: camera FOV must be in (0, 180) degrees", ErrInvalid)
	}
	return nil
}

// #endregion validate

// #region controller-config

// Controller maps the tunables onto the controller's config struct.
func (t Tunables) Controller() convergence.Config {
	return convergence.Config{
		InitialPopout:      t.InitialPopout,
		MinConvergence:     t.MinConvergence,
		MaxConvergence:     t.MaxConvergence,
		ConvergenceRate:    t.ConvergenceRate,
		DeviationThreshold: t.DeviationThreshold,
		JudderWindow:       t.JudderWindow,
		JudderThreshold:    t.JudderThreshold,
		LockDuration:       t.LockDuration,
		ManualStep:         t.ManualStep,
	}
}

// #endregion controller-config
