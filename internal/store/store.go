// Package store caches compiled programs in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/nodevm/internal/bytecode"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var ErrNotFound = errors.New("program not found")

const schema = `CREATE TABLE IF NOT EXISTS programs (
	name        TEXT PRIMARY KEY,
	function_id TEXT NOT NULL,
	code        BLOB NOT NULL,
	entry       INTEGER NOT NULL,
	source      BLOB,
	created     INTEGER NOT NULL
)`

// Record is one cached program.
type Record struct {
	Name       string
	FunctionID uuid.UUID
	Code       bytecode.Stream
	Entry      int

	// Source is the program file the stream was assembled from.
	Source  []byte
	Created time.Time
}

// Store is a program cache backed by one sqlite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Put inserts rec, replacing any record with the same name.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.Created.IsZero() {
		rec.Created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO programs (name, function_id, code, entry, source, created)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			function_id = excluded.function_id,
			code = excluded.code,
			entry = excluded.entry,
			source = excluded.source,
			created = excluded.created`,
		rec.Name, rec.FunctionID.String(), rec.Code.Encode(), rec.Entry, rec.Source, rec.Created.UnixNano())
	if err != nil {
		return fmt.Errorf("storing %q: %w", rec.Name, err)
	}
	return nil
}

// Get returns the record called name.
func (s *Store) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, function_id, code, entry, source, created FROM programs WHERE name = ?`, name)
	rec, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return rec, err
}

// List returns every record ordered by name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, function_id, code, entry, source, created FROM programs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (Record, error) {
	var (
		rec     Record
		id      string
		code    []byte
		created int64
	)
	if err := sc.Scan(&rec.Name, &id, &code, &rec.Entry, &rec.Source, &created); err != nil {
		return Record{}, err
	}

	var err error
	if rec.FunctionID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("record %q: function id: %w", rec.Name, err)
	}
	if rec.Code, err = bytecode.DecodeStream(code); err != nil {
		return Record{}, fmt.Errorf("record %q: %w", rec.Name, err)
	}
	rec.Created = time.Unix(0, created)
	return rec, nil
}
