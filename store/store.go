// Package store persists conversion runs in a SQLite ledger: which files were
// read, how each one fared and the records it produced.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/quizbank/question"
)

// Document statuses.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Run represents a row in the runs table.
type Run struct {
	ID          string `json:"id"`
	SourceDir   string `json:"source_dir"`
	Status      string `json:"status"`
	FileCount   int    `json:"file_count"`
	RecordCount int    `json:"record_count"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	RunID       string `json:"run_id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	ContentHash string `json:"content_hash"`
	ParseMethod string `json:"parse_method"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	RecordCount int    `json:"record_count"`
	CreatedAt   string `json:"created_at"`
}

// Store wraps the SQLite ledger database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Run operations ---

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, id, sourceDir string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, source_dir, status) VALUES (?, ?, 'running')",
		id, sourceDir)
	return err
}

// FinishRun records the final status and totals of a run.
func (s *Store) FinishRun(ctx context.Context, id, status string, fileCount, recordCount int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, file_count = ?, record_count = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, fileCount, recordCount, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var sourceDir, finished sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_dir, status, file_count, record_count, started_at, finished_at
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &sourceDir, &r.Status, &r.FileCount, &r.RecordCount, &r.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	r.SourceDir = sourceDir.String
	r.FinishedAt = finished.String
	return r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_dir, status, file_count, record_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var sourceDir, finished sql.NullString
		if err := rows.Scan(&r.ID, &sourceDir, &r.Status, &r.FileCount, &r.RecordCount, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		r.SourceDir = sourceDir.String
		r.FinishedAt = finished.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Document operations ---

// RecordDocument stores a document and its records in one transaction and
// returns the document ID. RecordCount is taken from len(records).
func (s *Store) RecordDocument(ctx context.Context, doc Document, records []question.Record) (int64, error) {
	var docID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (run_id, path, filename, format, content_hash, parse_method, status, error, record_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.RunID, doc.Path, doc.Filename, doc.Format, doc.ContentHash,
			doc.ParseMethod, doc.Status, nullString(doc.Error), len(records))
		if err != nil {
			return fmt.Errorf("inserting document: %w", err)
		}
		if docID, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO questions (document_id, position, type, question, options, answer, explanation)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range records {
			opts, err := json.Marshal(r.Options)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, docID, i, string(r.Type), r.Question,
				string(opts), r.Answer, r.Explanation); err != nil {
				return fmt.Errorf("inserting question %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return docID, nil
}

// ListDocuments returns the documents of a run in insertion order.
func (s *Store) ListDocuments(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, path, filename, format, content_hash, parse_method, status, error, record_count, created_at
		FROM documents WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var errText sql.NullString
		if err := rows.Scan(&d.ID, &d.RunID, &d.Path, &d.Filename, &d.Format,
			&d.ContentHash, &d.ParseMethod, &d.Status, &errText, &d.RecordCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Error = errText.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// LatestByHash returns the most recent successful document with the given
// content hash, or sql.ErrNoRows.
func (s *Store) LatestByHash(ctx context.Context, hash string) (*Document, error) {
	d := &Document{}
	var errText sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, path, filename, format, content_hash, parse_method, status, error, record_count, created_at
		FROM documents WHERE content_hash = ? AND status = ?
		ORDER BY id DESC LIMIT 1
	`, hash, StatusOK).Scan(&d.ID, &d.RunID, &d.Path, &d.Filename, &d.Format,
		&d.ContentHash, &d.ParseMethod, &d.Status, &errText, &d.RecordCount, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Error = errText.String
	return d, nil
}

// Questions returns the records stored for a document in document order.
func (s *Store) Questions(ctx context.Context, docID int64) ([]question.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.type, q.question, q.options, q.answer, q.explanation, d.filename
		FROM questions q JOIN documents d ON d.id = q.document_id
		WHERE q.document_id = ? ORDER BY q.position
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []question.Record
	for rows.Next() {
		var r question.Record
		var typ string
		var opts, answer, explanation sql.NullString
		if err := rows.Scan(&typ, &r.Question, &opts, &answer, &explanation, &r.Source); err != nil {
			return nil, err
		}
		r.Type = question.Type(typ)
		r.Answer = answer.String
		r.Explanation = explanation.String
		if opts.Valid && opts.String != "" && opts.String != "null" {
			if err := json.Unmarshal([]byte(opts.String), &r.Options); err != nil {
				return nil, fmt.Errorf("decoding options: %w", err)
			}
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// DBStats holds row counts for the ledger tables.
type DBStats struct {
	Runs      int `json:"runs"`
	Documents int `json:"documents"`
	Questions int `json:"questions"`
}

// Stats returns counts of runs, documents and questions.
func (s *Store) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM runs", &stats.Runs},
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM questions", &stats.Questions},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
