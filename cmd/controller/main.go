package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/compositor"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/config"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/convergence"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/input"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/osd"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/signals"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/trace"
)

const frameDT = float32(1.0 / 60.0)

// #region main
func main() {
	configPath := envOr("CONV_CONFIG", "tunables.yaml")
	dbPath := envOr("CONV_DB", "convergence_trace.db")

	tunables, err := config.Load(configPath)
	if err != nil {
		// Bad tunables disable auto-convergence only; the host would keep
		// running with static convergence.
		if errors.Is(err, config.ErrInvalid) {
			log.Printf("[CONV] %v", err)
			log.Fatal("[CONV] auto-convergence disabled, falling back to static convergence")
		}
		log.Fatalf("[CONV] failed to load tunables: %v", err)
	}

	store, err := trace.NewStore(dbPath)
	if err != nil {
		log.Fatalf("[TRACE] failed to open store: %v", err)
	}
	defer store.Close()

	cfgJSON, _ := json.Marshal(tunables)
	sessionID, err := store.BeginSession(string(cfgJSON))
	if err != nil {
		log.Fatalf("[TRACE] failed to begin session: %v", err)
	}
	defer func() {
		if err := store.EndSession(sessionID); err != nil {
			log.Printf("[TRACE] end session: %v", err)
		}
	}()

	controller := convergence.New(tunables.Controller(), osd.LogDisplay{})
	comp := compositor.New(tunables.Camera)
	dispatcher := input.NewDispatcher(input.DefaultBindings(), controller)
	producer := signals.NewProducer(signals.DefaultProducerConfig())

	frame := 0
	controller.SetLockHook(func(e convergence.LockEvent) {
		if e.Engaged {
			log.Printf("[CONV] judder lock engaged (%d reversals), holding popout at floor", e.SignChanges)
		} else {
			log.Printf("[CONV] judder lock released, resuming tracking")
		}
		err := store.LogLockEvent(trace.LockRecord{
			SessionID:   sessionID,
			Frame:       frame,
			Engaged:     e.Engaged,
			SignChanges: e.SignChanges,
			Popout:      e.Popout,
		})
		if err != nil {
			log.Printf("[TRACE] log lock event: %v", err)
		}
	})

	fmt.Println("Auto-convergence controller ready.")
	fmt.Printf("  Config: %s | Trace: %s | Session: %s\n", configPath, dbPath, sessionID)
	fmt.Println("Enter an intrusion value per frame (0..1) or 'd <minDepth> <coverage>',")
	fmt.Println("'t' to toggle, '+'/'-' to nudge, 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if dispatcher.Handle(line) {
			snap := controller.Snapshot()
			fmt.Printf("[frame %d] enabled=%t mode=%s popout=%.3f target=%.3f\n",
				frame, snap.Enabled, snap.Mode, snap.Current, snap.Target)
			continue
		}

		sample, err := parseSample(line, producer)
		if err != nil {
			fmt.Printf("unrecognized input %q: %v\n", line, err)
			continue
		}

		popout := controller.Update(sample, frameDT)
		comp.ApplyFrame(popout)
		snap := controller.Snapshot()

		err = store.LogFrame(trace.FrameRecord{
			SessionID: sessionID,
			Frame:     frame,
			Intrusion: sample.Intrusion,
			DT:        frameDT,
			Popout:    popout,
			Target:    snap.Target,
			Mode:      string(snap.Mode),
		})
		if err != nil {
			log.Printf("[TRACE] log frame: %v", err)
		}

		fmt.Printf("[frame %d] popout=%.3f target=%.3f mode=%s convergence=%.3f\n",
			frame, popout, snap.Target, snap.Mode, comp.Convergence())
		frame++
	}
}
// #endregion main

// #region helpers

// parseSample accepts either a bare intrusion value or a depth read-back
// line "d <minDepth> <coverage>" routed through the signals producer.
func parseSample(line string, producer *signals.Producer) (convergence.FrameSample, error) {
	fields := strings.Fields(line)
	if fields[0] == "d" {
		if len(fields) != 3 {
			return convergence.FrameSample{}, fmt.Errorf("want d <minDepth> <coverage>")
		}
		minDepth, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return convergence.FrameSample{}, fmt.Errorf("bad minDepth: %w", err)
		}
		coverage, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return convergence.FrameSample{}, fmt.Errorf("bad coverage: %w", err)
		}
		return producer.Sample(signals.DepthStats{
			MinDepth:     float32(minDepth),
			NearCoverage: float32(coverage),
			Timestamp:    time.Now(),
		})
	}
	intrusion, err := strconv.ParseFloat(line, 32)
	if err != nil {
		return convergence.FrameSample{}, fmt.Errorf("want a number or a bound key")
	}
	return convergence.FrameSample{Intrusion: float32(intrusion)}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
