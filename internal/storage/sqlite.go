package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"bankscli/internal/dataprocessing"
	apperrors "bankscli/internal/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store wraps the SQLite database holding the ranking table.
// Writes go through db; Query runs on readDB, opened with mode=ro so SQLite
// itself refuses writes hidden in CTEs or stacked statements.
type Store struct {
	db        *sql.DB
	readDB    *sql.DB
	path      string
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the SQLite file at path
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("create db directory", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError(fmt.Sprintf("connect to %s", path), err)
	}

	readDB, err := openReadOnly(ctx, path)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		readDB: readDB,
		path:   path,
		logger: logger.With(slog.String("component", "store")),
	}, nil
}

// openReadOnly opens the query handle on an existing database file
func openReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	db, err := sql.Open("sqlite", "file:"+escaped+"?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)")
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite read-only", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError(fmt.Sprintf("connect read-only to %s", path), err)
	}
	return db, nil
}

// Close closes the database connections. Later calls return the first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.readDB.Close(), s.db.Close())
		s.logger.Debug("store closed", slog.String("path", s.path))
	})
	return s.closeErr
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying database connection
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveTable replaces tableName with the contents of table.
// Drop, create and inserts run in one transaction, so a failed load leaves
// the previous table in place. Readers on other connections of a database
// without WAL may still see the table missing while the load is in progress.
func (s *Store) SaveTable(ctx context.Context, table *dataprocessing.Table, tableName string) error {
	quotedTable, err := QuoteIdentifier(tableName)
	if err != nil {
		return err
	}

	columns := table.Columns()
	defs := make([]string, len(columns))
	names := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted, err := QuoteIdentifier(col.Name)
		if err != nil {
			return err
		}
		names[i] = quoted
		defs[i] = quoted + " " + sqlType(col.Kind)
		placeholders[i] = "?"
	}
	if len(columns) == 0 {
		return apperrors.NewAppValidationError("cannot store a table without columns")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quotedTable); err != nil {
		return apperrors.NewStorageError("drop table "+tableName, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", "))); err != nil {
		return apperrors.NewStorageError("create table "+tableName, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quotedTable, strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return apperrors.NewStorageError("prepare insert", err)
	}
	defer stmt.Close()

	for i := 0; i < table.NumRows(); i++ {
		if _, err := stmt.ExecContext(ctx, table.Row(i)...); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("insert row %d", i+1), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit", err)
	}

	s.logger.InfoContext(ctx, "table saved",
		slog.String("table", tableName),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", len(columns)))
	return nil
}

// TableExists reports whether tableName exists in the database
func (s *Store) TableExists(ctx context.Context, tableName string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
	).Scan(&n)
	if err != nil {
		return false, apperrors.NewStorageError("inspect schema", err)
	}
	return n > 0, nil
}

// QuoteIdentifier validates name as a plain SQL identifier and double-quotes it
func QuoteIdentifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("invalid SQL identifier %q", name))
	}
	return `"` + name + `"`, nil
}

func sqlType(kind dataprocessing.Kind) string {
	if kind == dataprocessing.KindFloat {
		return "REAL"
	}
	return "TEXT"
}
