package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver.
)

var (
	ErrNotInitialized = errors.New("store not initialized")
	ErrNotFound       = errors.New("not found")
	ErrPackageExpired = errors.New("package expired")
	ErrMissingPath    = errors.New("missing store path")
)

// Store is a SQLite-backed repository.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Opt configures a [Store].
type Opt func(*Store)

// WithClock sets the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Opt {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the configuration id source.
func WithIDGenerator(newID func() string) Opt {
	return func(s *Store) {
		s.newID = newID
	}
}

// Open opens or creates the database at path and migrates its schema.
func Open(ctx context.Context, path string, opts ...Opt) (*Store, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, ErrMissingPath
	}

	p = filepath.Clean(p)

	err := os.MkdirAll(filepath.Dir(p), 0o700)
	if err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	// modernc.org/sqlite uses a file path as DSN.
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single-process local database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = initSchema(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	s := &Store{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close() //nolint:wrapcheck // Return the original error.
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}

	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`)
	if err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}

	_, err = db.ExecContext(ctx, `PRAGMA busy_timeout=3000;`)
	if err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}

	_, err = db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`)
	if err != nil {
		return fmt.Errorf("pragma foreign_keys: %w", err)
	}

	return migrateSchema(ctx, db)
}

// Schema versions:
//   - v1: rules, compatibility, dependencies, configurations, packages.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS rules (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  tags_json TEXT NOT NULL DEFAULT '[]',
  always_apply INTEGER NOT NULL DEFAULT 0,
  created_at_unix_ms INTEGER NOT NULL,
  updated_at_unix_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS rule_compatibility (
  rule_id TEXT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  position INTEGER NOT NULL,
  value TEXT NOT NULL,
  PRIMARY KEY (rule_id, kind, position)
);
CREATE TABLE IF NOT EXISTS rule_dependencies (
  rule_id TEXT NOT NULL,
  depends_on_rule_id TEXT NOT NULL,
  dependency_type TEXT NOT NULL,
  PRIMARY KEY (rule_id, depends_on_rule_id, dependency_type)
);
CREATE INDEX IF NOT EXISTS idx_rule_dependencies_type ON rule_dependencies(dependency_type, rule_id);
CREATE TABLE IF NOT EXISTS wizard_configurations (
  id TEXT PRIMARY KEY,
  stack_choices_json TEXT NOT NULL DEFAULT '{}',
  language_choices_json TEXT NOT NULL DEFAULT '{}',
  tool_preferences_json TEXT NOT NULL DEFAULT '{}',
  environment_details_json TEXT NOT NULL DEFAULT '{}',
  output_format TEXT NOT NULL,
  custom_requirements TEXT NOT NULL DEFAULT '',
  created_at_unix_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS generated_packages (
  id TEXT PRIMARY KEY,
  configuration_id TEXT NOT NULL REFERENCES wizard_configurations(id),
  package_type TEXT NOT NULL,
  download_url TEXT NOT NULL DEFAULT '',
  file_name TEXT NOT NULL DEFAULT '',
  file_size INTEGER NOT NULL DEFAULT 0,
  rule_count INTEGER NOT NULL DEFAULT 0,
  download_count INTEGER NOT NULL DEFAULT 0,
  expires_at_unix_ms INTEGER NOT NULL,
  created_at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generated_packages_expires ON generated_packages(expires_at_unix_ms);
`,
}

func migrateSchema(ctx context.Context, db *sql.DB) error {
	var v int

	err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
	if err != nil {
		return fmt.Errorf("pragma user_version: %w", err)
	}

	for ; v < len(migrations); v++ {
		err := applyMigration(ctx, db, v+1, migrations[v])
		if err != nil {
			return fmt.Errorf("migrate schema to v%d: %w", v+1, err)
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d;", version))
	if err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return tx.Commit() //nolint:wrapcheck // Return the original error.
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

func unixMs(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
