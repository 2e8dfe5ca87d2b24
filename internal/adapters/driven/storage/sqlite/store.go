package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shinyobjectz/beans/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
	"github.com/shinyobjectz/beans/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.FindingStore = (*Store)(nil)

// DefaultBusyTimeout is how long a connection waits on a locked database.
const DefaultBusyTimeout = 5000

// Store is the SQLite-backed research store. It owns the database handle,
// the schema, and the FTS5 index kept in step with the findings table.
type Store struct {
	db          *sql.DB
	path        string
	busyTimeout int
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(s *Store) { s.busyTimeout = ms }
}

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore opens or creates the research database at path, creating parent
// directories as needed, and brings the schema up to date.
// If path is empty, defaults to .beans/research.db.
func NewStore(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = filepath.Join(domain.DefaultStateDir, domain.DefaultDatabaseName)
	}

	s := &Store{
		path:        path,
		busyTimeout: DefaultBusyTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w: %w", domain.ErrStorage, err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, s.busyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w: %w", domain.ErrStorage, err)
	}
	s.db = db

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureSchema applies pending migrations. It is safe to call on every open.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

// migrate runs every up migration newer than the recorded version, each in
// its own transaction together with its version row.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_findings.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("Applied migration %s", name)
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, storageErr("reading schema version", err)
	}
	return version, nil
}

// CheckIntegrity runs the FTS5 integrity check against the findings table
// and compares the number of indexed documents with the number of rows.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO findings_fts(findings_fts, rank) VALUES ('integrity-check', 1)`)
	if err != nil {
		return storageErr("checking full-text index", err)
	}

	var rows, indexed int
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM findings), (SELECT COUNT(*) FROM findings_fts_docsize)
	`).Scan(&rows, &indexed)
	if err != nil {
		return storageErr("counting indexed findings", err)
	}
	if rows != indexed {
		return fmt.Errorf("%w: full-text index holds %d documents, findings table holds %d",
			domain.ErrStorage, indexed, rows)
	}
	return nil
}

// RebuildIndex regenerates the full-text index from the findings table.
func (s *Store) RebuildIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO findings_fts(findings_fts) VALUES ('rebuild')`); err != nil {
		return storageErr("rebuilding full-text index", err)
	}
	logger.Info("Rebuilt full-text index")
	return nil
}

// storageErr wraps a driver error so that both domain.ErrStorage and the
// driver error are reachable with errors.Is / errors.As.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
