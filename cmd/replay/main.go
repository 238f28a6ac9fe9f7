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
	dbPath := flag.String("db", "", "path to convergence_trace.db (DB mode)")
	sessionID := flag.String("session", "", "session id to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	verbose := flag.Bool("v", false, "print per-frame results")
	flag.Parse()

	fixtureMode := *fixturePath != ""
	dbMode := *dbPath != ""
	if fixtureMode == dbMode {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/convergence_trace.db --session <id>")
		os.Exit(2)
	}

	var exitCode int
	if fixtureMode {
		exitCode = runFixtureMode(*fixturePath, *verbose)
	} else {
		exitCode = runDBMode(*dbPath, *sessionID, *verbose)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, summary := replay.RunFixture(f)
	if verbose {
		for _, r := range results {
			status := "ok"
			if !r.Eval.Passed {
				status = r.Eval.Reason
			}
			if r.ExpectationErr != "" {
				status = r.ExpectationErr
			}
			fmt.Printf("frame %4d  popout=%.4f target=%.4f mode=%-10s %s\n",
				r.Frame, r.Popout, r.Target, r.Mode, status)
		}
	}

	printSummary(summary)
	if summary.EvalFailures > 0 || summary.ExpectationFails > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region db-mode

func runDBMode(dbPath, sessionID string, verbose bool) int {
	if sessionID == "" {
		fmt.Fprintln(os.Stderr, "--session is required in DB mode")
		return 2
	}

	store, err := trace.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	cfg, err := sessionConfig(store, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session config: %v\n", err)
		return 2
	}

	divergences, summary, err := replay.RunSession(store, sessionID, cfg.Controller())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay session: %v\n", err)
		return 2
	}

	if verbose || len(divergences) > 0 {
		for _, d := range divergences {
			fmt.Printf("frame %4d  recorded popout=%.4f mode=%s, replayed popout=%.4f mode=%s\n",
				d.Frame, d.RecordedPopout, d.RecordedMode, d.ReplayedPopout, d.ReplayedMode)
		}
	}

	printSummary(summary)
	fmt.Printf("divergent frames: %d\n", len(divergences))
	if len(divergences) > 0 || summary.EvalFailures > 0 {
		return 1
	}
	return 0
}

// sessionConfig reads the tunables recorded alongside the session, falling
// back to defaults for sessions recorded without one.
func sessionConfig(store *trace.Store, sessionID string) (config.Tunables, error) {
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

// #endregion db-mode

// #region summary

func printSummary(s replay.Summary) {
	fmt.Printf("frames: %d  locks engaged: %d  eval failures: %d  expectation failures: %d\n",
		s.Frames, s.LocksEngaged, s.EvalFailures, s.ExpectationFails)
	fmt.Printf("final popout: %.4f  final mode: %s\n", s.FinalPopout, s.FinalMode)
}

// #endregion summary
