package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"github.com/jmoiron/sqlx"

	// PostgreSQL driver, selected with driver "postgres".
	"github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// pgUniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const pgUniqueViolation = "23505"

// insertErr wraps an INSERT failure. A duplicate primary key means another
// writer created the record first, so it becomes ErrConflict.
func insertErr(what, id string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("create %s %s: %w", what, id, ErrConflict)
	}
	return fmt.Errorf("create %s %s: %w", what, id, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// Store owns the database handle and hands out repositories.
type Store struct {
	db      *sqlx.DB
	dialect string
	seq     *sequenceCounter
	now     func() time.Time
}

// Repos groups the repositories bound to one handle: the database itself
// or a transaction started by InTx.
type Repos struct {
	Cards     CardRepo
	Users     UserRepo
	Articles  ArticleRepo
	Events    EventRepo
	Snapshots SnapshotRepo
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	return OpenDriver(DriverSQLite, dsn)
}

// OpenDriver opens a Store for driver "sqlite" or "postgres".
func OpenDriver(driver, dsn string) (*Store, error) {
	var d string
	switch driver {
	case DriverSQLite, "":
		driver, d = DriverSQLite, dialect.SQLite
	case DriverPostgres:
		d = dialect.Postgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialect.SQLite {
		// One connection: SQLite serializes writers anyway, and in-memory
		// databases live only as long as their connection.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	ctx := context.Background()
	if err := migrate(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dialect: d, seq: seq, now: time.Now}, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the clock used for record and event timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Repos returns repositories that run directly against the database.
func (s *Store) Repos() Repos {
	return s.repos(s.db)
}

func (s *Store) Cards() CardRepo         { return s.Repos().Cards }
func (s *Store) Users() UserRepo         { return s.Repos().Users }
func (s *Store) Articles() ArticleRepo   { return s.Repos().Articles }
func (s *Store) Events() EventRepo       { return s.Repos().Events }
func (s *Store) Snapshots() SnapshotRepo { return s.Repos().Snapshots }

// InTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
// fn must not use repositories obtained outside the transaction.
func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(s.repos(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) repos(ext sqlx.ExtContext) Repos {
	b := base{ext: ext, dialect: s.dialect, now: s.clock}
	return Repos{
		Cards:     &cardRepo{base: b},
		Users:     &userRepo{base: b},
		Articles:  &articleRepo{base: b},
		Events:    &eventRepo{base: b, seq: s.seq},
		Snapshots: &snapshotRepo{base: b, seq: s.seq},
	}
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// base carries what every repository needs.
type base struct {
	ext     sqlx.ExtContext
	dialect string
	now     func() time.Time
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. READLEVEL_DB environment variable
// 2. $XDG_DATA_HOME/readlevel/readlevel.db
// 3. ~/.local/share/readlevel/readlevel.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("READLEVEL_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "readlevel", "readlevel.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
