package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"clashlb/launcher/pkg/fleet"
)

// ErrNotFound is returned by Get for an unknown launch ID.
var ErrNotFound = errors.New("launch not found")

// Launch is one recorded launch.
type Launch struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Status     fleet.Status  `json:"status"`
	Instances  int           `json:"instances"`
	Terminated int           `json:"terminated"`
	Error      string        `json:"error,omitempty"`
	Processes  []Process     `json:"processes,omitempty"`
}

// Process is one spawn attempt of a launch.
type Process struct {
	Role    fleet.Role `json:"role"`
	Index   int        `json:"index"`
	Binary  string     `json:"binary"`
	PID     int        `json:"pid,omitempty"`
	LogPath string     `json:"log_path"`
	Error   string     `json:"error,omitempty"`
}

// Config configures the store.
type Config struct {
	// Path is the database file. Its directory is created if missing.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Store is the SQLite launch journal.
type Store struct {
	db        *sql.DB
	mu        sync.Mutex
	closeOnce sync.Once
}

// Open opens or creates the database at cfg.Path.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS launches (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		status TEXT NOT NULL,
		instances INTEGER NOT NULL,
		terminated INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS processes (
		launch_id TEXT NOT NULL REFERENCES launches(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		role TEXT NOT NULL,
		idx INTEGER NOT NULL,
		binary_path TEXT NOT NULL,
		pid INTEGER NOT NULL DEFAULT 0,
		log_path TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (launch_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_launches_started_at ON launches(started_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record stores a launch result with all of its spawn attempts.
func (s *Store) Record(ctx context.Context, res *fleet.Result) error {
	if res == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if res.LaunchID == "" {
		return fmt.Errorf("launch id cannot be empty")
	}

	instances := 0
	for _, sp := range res.Spawned {
		if sp.Role == fleet.RoleInstance {
			instances++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO launches (id, started_at, duration_ms, status, instances, terminated, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.LaunchID,
		res.StartedAt.UnixMilli(),
		res.Duration.Milliseconds(),
		string(res.Status),
		instances,
		len(res.Terminated),
		errString(res.Err),
	)
	if err != nil {
		return fmt.Errorf("failed to insert launch: %w", err)
	}

	for i, sp := range res.Spawned {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO processes (launch_id, seq, role, idx, binary_path, pid, log_path, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			res.LaunchID, i, string(sp.Role), sp.Index, sp.Binary, sp.PID, sp.LogPath, errString(sp.Err),
		)
		if err != nil {
			return fmt.Errorf("failed to insert process: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit launch: %w", err)
	}
	return nil
}

// List returns up to limit launches, newest first, with their processes.
// A limit of zero or less returns every launch.
func (s *Store) List(ctx context.Context, limit int) ([]Launch, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, status, instances, terminated, error
		FROM launches
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}
	launches, err := scanLaunches(rows)
	if err != nil {
		return nil, err
	}

	for i := range launches {
		procs, err := s.processes(ctx, launches[i].ID)
		if err != nil {
			return nil, err
		}
		launches[i].Processes = procs
	}
	return launches, nil
}

// Get returns a single launch by ID.
func (s *Store) Get(ctx context.Context, id string) (*Launch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, status, instances, terminated, error
		FROM launches
		WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load launch: %w", err)
	}
	launches, err := scanLaunches(rows)
	if err != nil {
		return nil, err
	}
	if len(launches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	l := launches[0]
	if l.Processes, err = s.processes(ctx, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// Prune deletes all but the newest keep launches and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const keepSet = `SELECT id FROM launches ORDER BY started_at DESC, rowid DESC LIMIT ?`
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM processes WHERE launch_id NOT IN (`+keepSet+`)`, keep); err != nil {
		return 0, fmt.Errorf("failed to prune processes: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		`DELETE FROM launches WHERE id NOT IN (`+keepSet+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune launches: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned launches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

func (s *Store) processes(ctx context.Context, launchID string) ([]Process, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, idx, binary_path, pid, log_path, error
		FROM processes
		WHERE launch_id = ?
		ORDER BY seq`, launchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	defer rows.Close()

	var procs []Process
	for rows.Next() {
		var (
			p    Process
			role string
		)
		if err := rows.Scan(&role, &p.Index, &p.Binary, &p.PID, &p.LogPath, &p.Error); err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}
		p.Role = fleet.Role(role)
		procs = append(procs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processes: %w", err)
	}
	return procs, nil
}

func scanLaunches(rows *sql.Rows) ([]Launch, error) {
	defer rows.Close()

	var launches []Launch
	for rows.Next() {
		var (
			l          Launch
			startedAt  int64
			durationMS int64
			status     string
		)
		if err := rows.Scan(&l.ID, &startedAt, &durationMS, &status, &l.Instances, &l.Terminated, &l.Error); err != nil {
			return nil, fmt.Errorf("failed to scan launch: %w", err)
		}
		l.StartedAt = time.UnixMilli(startedAt)
		l.Duration = time.Duration(durationMS) * time.Millisecond
		l.Status = fleet.Status(status)
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate launches: %w", err)
	}
	return launches, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
