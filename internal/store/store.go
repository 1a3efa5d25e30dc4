// Package store persists repository descriptors in SQLite.
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

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("repository not found")
	// ErrConfigurationInvalid reports a missing or inconsistent descriptor.
	ErrConfigurationInvalid = errors.New("configuration data not valid")
)

// Descriptor identifies a tracked repository by its working tree.
type Descriptor struct {
	Address   string
	Directory string
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.Directory) == "" {
		return fmt.Errorf("%w: empty directory", ErrConfigurationInvalid)
	}
	if strings.TrimSpace(d.Address) == "" {
		return fmt.Errorf("%w: empty address for %s", ErrConfigurationInvalid, d.Directory)
	}
	return nil
}

type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(time.Minute)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the descriptor for d.Directory.
func (s *Store) Put(ctx context.Context, d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repositories (directory, address)
		VALUES (?, ?)
		ON CONFLICT(directory) DO UPDATE SET
			address = excluded.address,
			updated_at = CURRENT_TIMESTAMP
	`, d.Directory, d.Address)
	if err != nil {
		return fmt.Errorf("upsert repository %s: %w", d.Directory, err)
	}
	return nil
}

// Lookup returns the descriptor stored under dir. Missing records and
// records whose fields do not match the key are reported as
// ErrConfigurationInvalid.
func (s *Store) Lookup(ctx context.Context, dir string) (Descriptor, error) {
	var d Descriptor
	err := s.db.QueryRowContext(ctx, `
		SELECT directory, address FROM repositories WHERE directory = ?
	`, dir).Scan(&d.Directory, &d.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return Descriptor{}, fmt.Errorf("%w: %s: %w", ErrConfigurationInvalid, dir, ErrNotFound)
	}
	if err != nil {
		return Descriptor{}, fmt.Errorf("query repository %s: %w", dir, err)
	}
	if d.Directory != dir {
		return Descriptor{}, fmt.Errorf("%w: descriptor directory %q does not match %q", ErrConfigurationInvalid, d.Directory, dir)
	}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func (s *Store) Delete(ctx context.Context, dir string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE directory = ?`, dir)
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", dir, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete repository %s: %w", dir, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	return nil
}

// Directories lists every tracked directory in lexical order, which is also
// the scheduler's round-robin order.
func (s *Store) Directories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT directory FROM repositories ORDER BY directory`)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var dirs []string
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		dirs = append(dirs, dir)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return dirs, nil
}
