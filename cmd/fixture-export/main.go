package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/config"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/replay"
	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/trace"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to convergence_trace.db")
	sessionID := flag.String("session", "", "session id to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --session <id> --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

// run turns a recorded session into a replay fixture: the recorded inputs
// become the frame script and the recorded modes become expectations.
func run(dbPath, sessionID, outPath string) error {
	store, err := trace.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	frames, err := store.FramesForSession(sessionID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("session %s has no frames", sessionID)
	}

	tunables, err := sessionTunables(store, sessionID)
	if err != nil {
		return err
	}

	fixture := replay.Fixture{
		Description: fmt.Sprintf("exported from session %s", sessionID),
		Tunables:    replay.TunablesFromConfig(tunables.Controller()),
	}
	for _, f := range frames {
		fixture.Frames = append(fixture.Frames, replay.FixtureFrame{
			Frame:     f.Frame,
			Intrusion: f.Intrusion,
			DT:        f.DT,
		})
		fixture.Expected = append(fixture.Expected, replay.FixtureExpectation{
			Frame: f.Frame,
			Mode:  f.Mode,
		})
	}

	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	fmt.Printf("exported %d frames to %s\n", len(fixture.Frames), outPath)
	return nil
}

func sessionTunables(store *trace.Store, sessionID string) (config.Tunables, error) {
	sessions, err := store.ListSessions(1000)
	if err != nil {
		return config.Tunables{}, err
	}
	for _, s := range sessions {
		if s.SessionID != sessionID {
			continue
		}
		if s.ConfigJSON == "" {
			return config.Default(), nil
		}
		t := config.Default()
		if err := json.Unmarshal([]byte(s.ConfigJSON), &t); err != nil {
			return config.Tunables{}, fmt.Errorf("parse session config: %w", err)
		}
		return t, nil
	}
	return config.Tunables{}, fmt.Errorf("session %s not found", sessionID)
}

// #endregion export
