// Package session is the working memory of fusadocs.
//
// Each session holds one system's records, its workflow state and the list
// of documents exported from it. Records are stored as JSON entries keyed by
// (session, key) in SQLite; tools read the whole dataset once at their entry
// point and pass it down as a value.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/fusadocs/internal/safety"
	"github.com/HendryAvila/fusadocs/internal/workflow"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is swapped by tests to freeze timestamps.
var timeNow = time.Now

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Session is one working-memory record.
type Session struct {
	ID            string         `json:"id"`
	System        string         `json:"system"`
	Stage         workflow.Stage `json:"stage,omitempty"`
	OutputFormat  string         `json:"output_format"`
	LastOperation string         `json:"last_operation,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// Document is one exported file.
type Document struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

// Entry keys.
const (
	KeyHazards    = "hazards"
	KeyGoals      = "goals"
	KeyFSRs       = "fsrs"
	KeyMechanisms = "mechanisms"
	KeyWorkflow   = "workflow"
)

// ReviewKey is the entry key of one review kind.
func ReviewKey(kind safety.ReviewKind) string { return "reviews." + string(kind) }

// Output formats.
const (
	FormatStandard = "standard"
	FormatMinimal  = "minimal"
)

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig stores data under ~/.fusadocs.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".fusadocs")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed session store.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (or creates) <DataDir>/fusadocs.db and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("session: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "fusadocs.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	// One connection keeps the per-connection pragmas in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("session: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir is the directory holding the database.
func (s *Store) DataDir() string { return s.cfg.DataDir }

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			system         TEXT NOT NULL,
			stage          TEXT NOT NULL DEFAULT '',
			output_format  TEXT NOT NULL DEFAULT 'standard',
			last_operation TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
			session_id TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session_id, key),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			kind       TEXT NOT NULL,
			path       TEXT NOT NULL,
			size       INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// CreateSession starts a new session for system.
func (s *Store) CreateSession(ctx context.Context, system string) (*Session, error) {
	ts := now()
	sess := &Session{
		ID:           uuid.NewString(),
		System:       system,
		OutputFormat: FormatStandard,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, system, output_format, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.System, sess.OutputFormat, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

const sessionColumns = `id, system, stage, output_format, last_operation, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var stage string
	if err := row.Scan(&sess.ID, &sess.System, &stage, &sess.OutputFormat, &sess.LastOperation,
		&sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	sess.Stage = workflow.Stage(stage)
	return &sess, nil
}

// GetSession returns the session with id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// RecentSessions lists sessions by last update, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// SetSystem renames the system of a session.
func (s *Store) SetSystem(ctx context.Context, id, system string) error {
	return s.update(ctx, id, "system", system)
}

// SetOutputFormat stores the response format preference ("standard" or "minimal").
func (s *Store) SetOutputFormat(ctx context.Context, id, format string) error {
	return s.update(ctx, id, "output_format", format)
}

// SetLastOperation records the most recent tool operation.
func (s *Store) SetLastOperation(ctx context.Context, id, op string) error {
	return s.update(ctx, id, "last_operation", op)
}

// update sets one whitelisted column and bumps updated_at.
func (s *Store) update(ctx context.Context, id, column, value string) error {
	switch column {
	case "system", "output_format", "last_operation", "stage":
	default:
		return fmt.Errorf("update session: column %q not updatable", column)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+column+` = ?, updated_at = ? WHERE id = ?`, value, now(), id)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// DeleteSession removes a session with its entries and document history.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ─── Entries ─────────────────────────────────────────────────────────────────

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func putEntry(ctx context.Context, db execer, id, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	var exists int
	if err := db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("put %s: %w", key, err)
	}
	ts := now()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO entries (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		id, key, string(data), ts,
	); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if _, err := db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, ts, id); err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	return nil
}

// PutEntry stores v as JSON under key, replacing any previous value.
func (s *Store) PutEntry(ctx context.Context, id, key string, v any) error {
	return putEntry(ctx, s.db, id, key, v)
}

// GetEntry decodes the value under key into dst. It reports false when the
// key has never been written.
func (s *Store) GetEntry(ctx context.Context, id, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM entries WHERE session_id = ? AND key = ?`, id, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveReviews stores the findings of one review kind.
func (s *Store) SaveReviews(ctx context.Context, id string, kind safety.ReviewKind, findings []safety.ReviewFinding) error {
	return s.PutEntry(ctx, id, ReviewKey(kind), findings)
}

// ─── Dataset ─────────────────────────────────────────────────────────────────

// Dataset loads every record of the session in one read.
func (s *Store) Dataset(ctx context.Context, id string) (safety.Dataset, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return safety.Dataset{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM entries WHERE session_id = ?`, id)
	if err != nil {
		return safety.Dataset{}, fmt.Errorf("load dataset %s: %w", id, err)
	}
	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			_ = rows.Close()
			return safety.Dataset{}, err
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return safety.Dataset{}, err
	}
	_ = rows.Close()

	ds := safety.Dataset{System: sess.System}
	targets := map[string]any{
		KeyHazards:    &ds.Hazards,
		KeyGoals:      &ds.Goals,
		KeyFSRs:       &ds.FSRs,
		KeyMechanisms: &ds.Mechanisms,
	}
	for key, dst := range targets {
		if raw, ok := values[key]; ok {
			if err := json.Unmarshal([]byte(raw), dst); err != nil {
				return safety.Dataset{}, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}
	for _, kind := range []safety.ReviewKind{safety.ReviewHARA, safety.ReviewItemDefinition} {
		raw, ok := values[ReviewKey(kind)]
		if !ok {
			continue
		}
		var findings []safety.ReviewFinding
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			return safety.Dataset{}, fmt.Errorf("decode %s: %w", ReviewKey(kind), err)
		}
		if ds.Reviews == nil {
			ds.Reviews = make(map[safety.ReviewKind][]safety.ReviewFinding)
		}
		ds.Reviews[kind] = findings
	}
	return ds, nil
}

// SaveDataset writes every non-empty record set of ds in one transaction and
// sets the session's system name when ds carries one.
func (s *Store) SaveDataset(ctx context.Context, id string, ds safety.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save dataset: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type part struct {
		key  string
		v    any
		keep bool
	}
	parts := []part{
		{KeyHazards, ds.Hazards, len(ds.Hazards) > 0},
		{KeyGoals, ds.Goals, len(ds.Goals) > 0},
		{KeyFSRs, ds.FSRs, len(ds.FSRs) > 0},
		{KeyMechanisms, ds.Mechanisms, len(ds.Mechanisms) > 0},
	}
	for kind, findings := range ds.Reviews {
		parts = append(parts, part{ReviewKey(kind), findings, len(findings) > 0})
	}
	for _, p := range parts {
		if !p.keep {
			continue
		}
		if err := putEntry(ctx, tx, id, p.key, p.v); err != nil {
			return err
		}
	}
	if ds.System != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET system = ? WHERE id = ?`, ds.System, id); err != nil {
			return fmt.Errorf("save dataset: system: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save dataset: commit: %w", err)
	}
	return nil
}

// ─── Workflow ────────────────────────────────────────────────────────────────

// State returns the workflow state of the session. A session that never
// advanced has the zero State.
func (s *Store) State(ctx context.Context, id string) (workflow.State, error) {
	if _, err := s.GetSession(ctx, id); err != nil {
		return workflow.State{}, err
	}
	var st workflow.State
	if _, err := s.GetEntry(ctx, id, KeyWorkflow, &st); err != nil {
		return workflow.State{}, err
	}
	return st, nil
}

// SaveState stores st and mirrors its stage onto the session row.
func (s *Store) SaveState(ctx context.Context, id string, st workflow.State) error {
	if err := s.PutEntry(ctx, id, KeyWorkflow, st); err != nil {
		return err
	}
	return s.update(ctx, id, "stage", string(st.Stage))
}

// Advance moves the session's workflow to stage and returns the new state.
// Stages at or behind the current one leave it unchanged.
func (s *Store) Advance(ctx context.Context, id string, stage workflow.Stage) (workflow.State, error) {
	st, err := s.State(ctx, id)
	if err != nil {
		return st, err
	}
	next, err := workflow.AdvanceTo(st, stage)
	if err != nil {
		return st, err
	}
	if next.Stage == st.Stage {
		return st, nil
	}
	if err := s.SaveState(ctx, id, next); err != nil {
		return st, err
	}
	return next, nil
}

// ─── Documents ───────────────────────────────────────────────────────────────

// RecordDocument appends an exported file to the session's history.
func (s *Store) RecordDocument(ctx context.Context, sessionID, kind, path string, size int64) (*Document, error) {
	doc := &Document{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Path:      path,
		Size:      size,
		CreatedAt: now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, session_id, kind, path, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.SessionID, doc.Kind, doc.Path, doc.Size, doc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}
	return doc, nil
}

// Documents lists the session's exported files, oldest first.
func (s *Store) Documents(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, path, size, created_at FROM documents
		 WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Kind, &d.Path, &d.Size, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
