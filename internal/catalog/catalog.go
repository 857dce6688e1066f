// Package catalog records the notes and annotations of documents in a
// SQLite database so they can be queried across files and runs.
//
// Each export is a run identified by a UUID. Exporting a document again
// replaces the entries of its previous run, so the catalog always holds
// one set of rows per source path.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/fingerprint"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// Entry kinds.
const (
	KindNote       = "note"
	KindAnnotation = "annotation"
)

// Run is one export of one document.
type Run struct {
	ID         string
	Source     string
	Digest     string
	ExportedAt time.Time
	Entries    int
}

// Entry is one note or annotation as recorded.
type Entry struct {
	Kind string
	// Name is the note id or annotation name.
	Name string
	// Class is the note class; empty for annotations.
	Class    string
	Creator  string
	Date     string
	Citation string
	// Content is the note body or the annotation comment.
	Content string
	// Annotated is the text an annotation range covers.
	Annotated string
	Ranged    bool
	// Digest is the BLAKE3 digest of the element markup.
	Digest string
}

// Store is a catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// DriverName returns the registered SQL driver in use.
func DriverName() string { return driverName }

// DriverPackage names the Go package providing the driver.
func DriverPackage() string { return driverPackage }

// Open opens or creates the catalog at path and brings its schema up to
// date.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewIO("create directory for", path, err)
		}
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	// One writer; a shared in-memory database needs a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring catalog: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
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

// migrations are applied in order; the index plus one is the version.
var migrations = []string{
	`CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		digest TEXT NOT NULL,
		exported_at TEXT NOT NULL
	);
	CREATE TABLE entries (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		class TEXT NOT NULL DEFAULT '',
		creator TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		citation TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		annotated TEXT NOT NULL DEFAULT '',
		ranged INTEGER NOT NULL DEFAULT 0,
		digest TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (run_id, kind, position)
	);
	CREATE INDEX idx_runs_source ON runs(source);`,
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			i+1, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Collect builds the catalog entries of doc in document order: notes
// first, then annotations.
func Collect(doc *odf.Document) ([]Entry, error) {
	var entries []Entry
	for _, n := range doc.Notes() {
		entries = append(entries, Entry{
			Kind:     KindNote,
			Name:     n.ID(),
			Class:    string(n.Class()),
			Citation: n.Citation(),
			Content:  n.Body(),
			Digest:   fingerprint.Nodes(n.Node()),
		})
	}
	for _, pair := range doc.Pairs() {
		a := pair.Start
		e := Entry{
			Kind:    KindAnnotation,
			Name:    a.Name(),
			Creator: a.Creator(),
			Date:    a.Node().GetElement("dc:date").TextContent(),
			Content: a.Content(),
			Ranged:  pair.End != nil,
			Digest:  fingerprint.Nodes(a.Node()),
		}
		if pair.End != nil {
			text, err := a.AnnotatedText(odf.DefaultExtractOptions())
			if err != nil {
				return nil, errors.Wrapf(err, "annotation %q", a.Name())
			}
			e.Annotated = text
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Export records doc under source, replacing any earlier run for the same
// source. content is the serialized document the digest is computed from.
func (s *Store) Export(ctx context.Context, source string, doc *odf.Document, content []byte) (*Run, error) {
	entries, err := Collect(doc)
	if err != nil {
		return nil, err
	}
	run := &Run{
		ID:         uuid.NewString(),
		Source:     source,
		Digest:     fingerprint.Sum(content).BLAKE3,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Entries:    len(entries),
	}
	ctx = logging.WithRunID(ctx, run.ID)
	logging.DebugContext(ctx, "catalog export started", "source", source, "entries", len(entries))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE run_id IN (SELECT id FROM runs WHERE source = ?)`, source); err != nil {
		return nil, fmt.Errorf("removing previous entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE source = ?`, source); err != nil {
		return nil, fmt.Errorf("removing previous runs: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, digest, exported_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, run.Digest, run.ExportedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (run_id, kind, name, class, creator, date, citation, content, annotated, ranged, digest, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing entries: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, run.ID, e.Kind, e.Name, e.Class, e.Creator, e.Date,
			e.Citation, e.Content, e.Annotated, boolToInt(e.Ranged), e.Digest, i); err != nil {
			logging.ErrorContext(ctx, "catalog entry rejected", "kind", e.Kind, "name", e.Name, "error", err)
			return nil, fmt.Errorf("recording %s %q: %w", e.Kind, e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing export: %w", err)
	}

	logging.CatalogWrite(ctx, s.path, len(entries), "source", source)
	return run, nil
}

// Runs returns the recorded runs ordered by source.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.digest, r.exported_at, COUNT(e.run_id)
		FROM runs r LEFT JOIN entries e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.source
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			at string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Digest, &at, &r.Entries); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.ExportedAt, _ = time.Parse(time.RFC3339, at)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Entries returns the entries recorded for source, in export order.
func (s *Store) Entries(ctx context.Context, source string) ([]Entry, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE source = ?`, source).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("catalog source", source)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, name, class, creator, date, citation, content, annotated, ranged, digest
		FROM entries
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			ranged int
		)
		if err := rows.Scan(&e.Kind, &e.Name, &e.Class, &e.Creator, &e.Date, &e.Citation,
			&e.Content, &e.Annotated, &ranged, &e.Digest); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Ranged = ranged != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
