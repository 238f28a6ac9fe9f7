package signals

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
)

// #region depth-stats

// DepthStats is the raw per-frame read-back from the host rendering
// pipeline: the nearest relevant depth sample plus how much of the screen
// sits inside the near band.
type DepthStats struct {
	MinDepth     float32 // nearest depth sample in view, world units
	NearCoverage float32 // fraction of samples inside the near band, [0, 1]
	Timestamp    time.Time
}

// #endregion depth-stats

// #region config

// ProducerConfig holds tuning knobs for intrusion derivation.
type ProducerConfig struct {
	NearBand       float32 // depth below which geometry counts as intruding
	CoverageWeight float32 // how strongly screen coverage amplifies intrusion
}

// DefaultProducerConfig returns sensible defaults.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		NearBand:       2.0,
		CoverageWeight: 1.0,
	}
}

// #endregion config

// #region producer

// Producer turns raw depth read-backs into the controller's frame samples.
// It enforces the source contract that samples arrive monotonically
// timestamped.
type Producer struct {
	config ProducerConfig
	lastTS time.Time
}

// NewProducer creates a Producer.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{config: config}
}

// Sample derives the intrusion scalar for one frame. Proximity of the
// nearest sample to the camera sets the base; near-band screen coverage
// amplifies it, so a large object looming close intrudes harder than a
// sliver at the same depth.
func (p *Producer) Sample(stats DepthStats) (convergence.FrameSample, error) {
	if !p.lastTS.IsZero() && !stats.Timestamp.After(p.lastTS) {
		return convergence.FrameSample{}, fmt.Errorf("depth sample at %s not after previous %s",
			stats.Timestamp.Format(time.RFC3339Nano), p.lastTS.Format(time.RFC3339Nano))
	}
	p.lastTS = stats.Timestamp

	var proximity float32
	if p.config.NearBand > 0 && stats.MinDepth < p.config.NearBand {
		proximity = (p.config.NearBand - stats.MinDepth) / p.config.NearBand
	}
	if proximity < 0 {
		proximity = 0
	}

	coverage := clamp01(stats.NearCoverage)
	intrusion := clamp01(proximity * (1 + p.config.CoverageWeight*coverage) / (1 + p.config.CoverageWeight))

	return convergence.FrameSample{
		Intrusion:    intrusion,
		NearestDepth: stats.MinDepth,
	}, nil
}

// #endregion producer

// #region helpers

// clamp01 restricts v to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
