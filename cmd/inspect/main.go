package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/auto-convergence/go-controller/internal/trace"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to convergence_trace.db")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	locks := flag.Bool("locks", false, "show lock events in session detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/convergence_trace.db [--last N] [--session id] [--locks] [--json]")
		os.Exit(2)
	}

	store, err := trace.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *locks, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string  `json:"session_id"`
	StartedAt string  `json:"started_at"`
	EndedAt   string  `json:"ended_at,omitempty"`
	Frames    int     `json:"frames"`
	MinPopout float32 `json:"min_popout"`
	MaxPopout float32 `json:"max_popout"`
	Locks     int     `json:"locks"`
}

func runListMode(store *trace.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}

	rows := make([]listRow, 0, len(sessions))
	for _, s := range sessions {
		stats, err := store.Stats(s.SessionID)
		if err != nil {
			return err
		}
		row := listRow{
			SessionID: s.SessionID,
			StartedAt: s.StartedAt.Format(time.RFC3339),
			Frames:    stats.Frames,
			MinPopout: stats.MinPopout,
			MaxPopout: stats.MaxPopout,
			Locks:     stats.LockedSpans,
		}
		if !s.EndedAt.IsZero() {
			row.EndedAt = s.EndedAt.Format(time.RFC3339)
		}
		rows = append(rows, row)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-36s  %-20s  %7s  %8s  %8s  %5s\n",
		"SESSION", "STARTED", "FRAMES", "MIN", "MAX", "LOCKS")
	for _, r := range rows {
		fmt.Printf("%-36s  %-20s  %7d  %8.4f  %8.4f  %5d\n",
			r.SessionID, r.StartedAt, r.Frames, r.MinPopout, r.MaxPopout, r.Locks)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOut struct {
	Session   listRow   `json:"session"`
	LockSpans []lockOut `json:"lock_events,omitempty"`
}

type lockOut struct {
	Frame       int     `json:"frame"`
	Engaged     bool    `json:"engaged"`
	SignChanges int     `json:"sign_changes"`
	Popout      float32 `json:"popout"`
}

func runDetailMode(store *trace.Store, sessionID string, showLocks, jsonOut bool) error {
	stats, err := store.Stats(sessionID)
	if err != nil {
		return err
	}
	if stats.Frames == 0 {
		return fmt.Errorf("session %s has no frames", sessionID)
	}

	lockEvents, err := store.LockEventsForSession(sessionID)
	if err != nil {
		return err
	}

	if jsonOut {
		out := detailOut{
			Session: listRow{
				SessionID: sessionID,
				Frames:    stats.Frames,
				MinPopout: stats.MinPopout,
				MaxPopout: stats.MaxPopout,
				Locks:     stats.LockedSpans,
			},
		}
		for _, e := range lockEvents {
			out.LockSpans = append(out.LockSpans, lockOut{
				Frame:       e.Frame,
				Engaged:     e.Engaged,
				SignChanges: e.SignChanges,
				Popout:      e.Popout,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("session %s\n", sessionID)
	fmt.Printf("  frames: %d  popout range: [%.4f, %.4f]  locks: %d\n",
		stats.Frames, stats.MinPopout, stats.MaxPopout, stats.LockedSpans)

	if showLocks {
		if len(lockEvents) == 0 {
			fmt.Println("  no lock events")
		}
		for _, e := range lockEvents {
			verb := "released"
			if e.Engaged {
				verb = "engaged"
			}
			fmt.Printf("  frame %6d  lock %s  reversals=%d  popout=%.4f\n",
				e.Frame, verb, e.SignChanges, e.Popout)
		}
	}
	return nil
}

// #endregion detail-mode
