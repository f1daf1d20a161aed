//go:build cgo

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brunobiangulo/quizbank/question"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.StartRun(ctx, "run-1", "/data"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	r, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r.Status != "running" || r.SourceDir != "/data" || r.FinishedAt != "" {
		t.Errorf("unexpected run: %+v", r)
	}

	if err := s.FinishRun(ctx, "run-1", "done", 3, 42); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	r, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r.Status != "done" || r.FileCount != 3 || r.RecordCount != 42 || r.FinishedAt == "" {
		t.Errorf("unexpected finished run: %+v", r)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), "missing", "done", 0, 0)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

// ---------------------------------------------------------------------------
// Documents and questions
// ---------------------------------------------------------------------------

func TestRecordDocumentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.StartRun(ctx, "run-1", ""); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	records := []question.Record{
		{Type: question.Single, Question: "What is 2+2?", Options: []string{"3", "a|b"}, Answer: "B", Explanation: "basic"},
		{Type: question.Judge, Question: "地球是圆的", Answer: "A"},
	}
	docID, err := s.RecordDocument(ctx, Document{
		RunID:       "run-1",
		Path:        "/data/原始题库1.docx",
		Filename:    "原始题库1.docx",
		Format:      "docx",
		ContentHash: "abc",
		ParseMethod: "native",
		Status:      StatusOK,
	}, records)
	if err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	got, err := s.Questions(ctx, docID)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	want := make([]question.Record, len(records))
	for i, r := range records {
		r.Source = "原始题库1.docx"
		want[i] = r
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Questions mismatch (-want +got):\n%s", diff)
	}

	docs, err := s.ListDocuments(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].RecordCount != 2 || docs[0].Error != "" {
		t.Errorf("unexpected documents: %+v", docs)
	}
}

func TestRecordDocumentWithError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.StartRun(ctx, "run-1", ""); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	if _, err := s.RecordDocument(ctx, Document{
		RunID: "run-1", Path: "/x.xls", Filename: "x.xls", Format: "xls",
		ContentHash: "h", ParseMethod: "none", Status: StatusError, Error: "legacy format",
	}, nil); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	docs, err := s.ListDocuments(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if docs[0].Status != StatusError || docs[0].Error != "legacy format" || docs[0].RecordCount != 0 {
		t.Errorf("unexpected document: %+v", docs[0])
	}
	if _, err := s.LatestByHash(ctx, "h"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("LatestByHash on failed document err = %v, want sql.ErrNoRows", err)
	}
}

func TestRecordDocumentUnknownRunRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.RecordDocument(ctx, Document{
		RunID: "no-such-run", Path: "/a", Filename: "a", Format: "txt",
		ContentHash: "h", ParseMethod: "native", Status: StatusOK,
	}, []question.Record{{Type: question.Single, Question: "q"}})
	if err == nil {
		t.Fatal("expected foreign key error")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Documents != 0 || stats.Questions != 0 {
		t.Errorf("transaction not rolled back: %+v", stats)
	}
}

func TestLatestByHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, run := range []string{"r1", "r2"} {
		if err := s.StartRun(ctx, run, ""); err != nil {
			t.Fatalf("StartRun: %v", err)
		}
		if _, err := s.RecordDocument(ctx, Document{
			RunID: run, Path: "/a.txt", Filename: "a.txt", Format: "txt",
			ContentHash: "same", ParseMethod: "native", Status: StatusOK,
		}, nil); err != nil {
			t.Fatalf("RecordDocument: %v", err)
		}
	}

	d, err := s.LatestByHash(ctx, "same")
	if err != nil {
		t.Fatalf("LatestByHash: %v", err)
	}
	if d.RunID != "r2" {
		t.Errorf("RunID = %q, want r2", d.RunID)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Runs != 2 || stats.Documents != 2 || stats.Questions != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}
