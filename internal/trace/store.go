package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	started_at   TEXT NOT NULL,
	ended_at     TEXT,
	config_json  TEXT
);

CREATE TABLE IF NOT EXISTS frame_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	frame        INTEGER NOT NULL,
	intrusion    REAL NOT NULL,
	dt           REAL NOT NULL,
	popout       REAL NOT NULL,
	target       REAL NOT NULL,
	mode         TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS lock_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	frame        INTEGER NOT NULL,
	engaged      INTEGER NOT NULL,
	sign_changes INTEGER NOT NULL,
	popout       REAL NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`
// #endregion schema

// #region store-struct
// Store persists per-session convergence traces in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by the CLI tools.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region begin-session
// BeginSession creates a new session row and returns its ID.
func (s *Store) BeginSession(configJSON string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var cfgPtr interface{}
	if configJSON != "" {
		cfgPtr = configJSON
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, started_at, config_json) VALUES (?, ?, ?)`,
		id, now.Format(time.RFC3339Nano), cfgPtr,
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}
// #endregion begin-session

// #region end-session
// EndSession stamps the session's end time.
func (s *Store) EndSession(sessionID string) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}
// #endregion end-session

// #region log-frame
// LogFrame appends one frame of controller output.
func (s *Store) LogFrame(rec FrameRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO frame_log (session_id, frame, intrusion, dt, popout, target, mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Frame, rec.Intrusion, rec.DT, rec.Popout, rec.Target, rec.Mode,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log frame: %w", err)
	}
	return nil
}
// #endregion log-frame

// #region log-lock
// LogLockEvent records a hysteresis transition.
func (s *Store) LogLockEvent(rec LockRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	engaged := 0
	if rec.Engaged {
		engaged = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO lock_events (session_id, frame, engaged, sign_changes, popout, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Frame, engaged, rec.SignChanges, rec.Popout,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log lock event: %w", err)
	}
	return nil
}
// #endregion log-lock

// #region list-sessions
// ListSessions returns the most recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, started_at, ended_at, config_json
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var startedStr string
		var endedStr, cfgJSON sql.NullString

		if err := rows.Scan(&rec.SessionID, &startedStr, &endedStr, &cfgJSON); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		if endedStr.Valid {
			rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr.String)
		}
		if cfgJSON.Valid {
			rec.ConfigJSON = cfgJSON.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-sessions

// #region frames-for-session
// FramesForSession returns a session's frame log in frame order.
func (s *Store) FramesForSession(sessionID string) ([]FrameRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, frame, intrusion, dt, popout, target, mode, created_at
		 FROM frame_log WHERE session_id = ? ORDER BY frame ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("frames for session: %w", err)
	}
	defer rows.Close()

	var records []FrameRecord
	for rows.Next() {
		var rec FrameRecord
		var createdStr string
		if err := rows.Scan(&rec.SessionID, &rec.Frame, &rec.Intrusion, &rec.DT,
			&rec.Popout, &rec.Target, &rec.Mode, &createdStr); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion frames-for-session

// #region locks-for-session
// LockEventsForSession returns a session's hysteresis transitions in order.
func (s *Store) LockEventsForSession(sessionID string) ([]LockRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, frame, engaged, sign_changes, popout, created_at
		 FROM lock_events WHERE session_id = ? ORDER BY frame ASC, id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock events for session: %w", err)
	}
	defer rows.Close()

	var records []LockRecord
	for rows.Next() {
		var rec LockRecord
		var engaged int
		var createdStr string
		if err := rows.Scan(&rec.SessionID, &rec.Frame, &engaged, &rec.SignChanges,
			&rec.Popout, &createdStr); err != nil {
			return nil, fmt.Errorf("scan lock event: %w", err)
		}
		rec.Engaged = engaged != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion locks-for-session

// #region stats
// Stats aggregates a session's frame log.
func (s *Store) Stats(sessionID string) (SessionStats, error) {
	var stats SessionStats
	var minP, maxP sql.NullFloat64

	err := s.db.QueryRow(
		`SELECT COUNT(*), MIN(popout), MAX(popout) FROM frame_log WHERE session_id = ?`,
		sessionID,
	).Scan(&stats.Frames, &minP, &maxP)
	if err != nil {
		return SessionStats{}, fmt.Errorf("frame stats: %w", err)
	}
	if minP.Valid {
		stats.MinPopout = float32(minP.Float64)
	}
	if maxP.Valid {
		stats.MaxPopout = float32(maxP.Float64)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(engaged), 0) FROM lock_events WHERE session_id = ?`,
		sessionID,
	).Scan(&stats.LocksTotal, &stats.LockedSpans)
	if err != nil {
		return SessionStats{}, fmt.Errorf("lock stats: %w", err)
	}
	return stats, nil
}
// #endregion stats
