// Package quizbank converts quiz-bank documents (spreadsheets, word-processor
// files, slide decks, PDFs and plain text) into a normalized five-column
// question table.
package quizbank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/quizbank/discover"
	"github.com/brunobiangulo/quizbank/ingest"
	"github.com/brunobiangulo/quizbank/output"
	"github.com/brunobiangulo/quizbank/parser"
	"github.com/brunobiangulo/quizbank/question"
	"github.com/brunobiangulo/quizbank/store"
)

// FileResult is the outcome of converting one file.
type FileResult struct {
	File     discover.File     `json:"file"`
	Records  []question.Record `json:"-"`
	Count    int               `json:"count"`
	Method   string            `json:"method,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	// PreviousRun is the run that last converted identical content, when the
	// ledger has one.
	PreviousRun string `json:"previous_run,omitempty"`
	Err         error  `json:"-"`
}

// Result is the outcome of a conversion run.
type Result struct {
	RunID   string            `json:"run_id"`
	Records []question.Record `json:"-"`
	Files   []FileResult      `json:"files"`
	Outputs []string          `json:"outputs,omitempty"`
}

// Failed returns the files that contributed no records because of an error.
func (r *Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithRegistry replaces the parser registry built from the config.
func WithRegistry(r *parser.Registry) Option {
	return func(c *Converter) { c.parsers = r }
}

// WithStore records runs in s instead of opening Config.DBPath. The caller
// keeps ownership of s.
func WithStore(s *store.Store) Option {
	return func(c *Converter) { c.store = s }
}

// Converter runs files through the parse, ingest and normalize pipeline.
// It is safe for concurrent use.
type Converter struct {
	cfg       Config
	logger    *slog.Logger
	parsers   *parser.Registry
	writer    output.Writer
	tabular   *ingest.Tabular
	narrative *ingest.Narrative
	store     *store.Store
	ownsStore bool
}

// New validates cfg and builds a Converter. It fails with ErrNoFormatSupported
// when no configured extension has a reader.
func New(cfg Config, opts ...Option) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Converter{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}

	if c.parsers == nil {
		c.parsers = newRegistry(cfg)
	}
	if !c.anyReadable() {
		return nil, fmt.Errorf("%w: extensions %v", ErrNoFormatSupported, cfg.Extensions)
	}

	w, err := output.WriterFor(cfg.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.writer = w
	c.tabular = ingest.NewTabular(c.logger)
	c.narrative = ingest.NewNarrative(c.logger)

	if c.store == nil && cfg.DBPath != "" {
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		c.store = s
		c.ownsStore = true
	}
	return c, nil
}

func newRegistry(cfg Config) *parser.Registry {
	reg := parser.NewRegistry()
	if cfg.AllSheets {
		for _, p := range []parser.Parser{&parser.XLSXParser{AllSheets: true}, &parser.XLSParser{AllSheets: true}} {
			for _, f := range p.SupportedFormats() {
				reg.Register(f, p)
			}
		}
	}
	for _, f := range cfg.DisabledFormats {
		reg.Disable(f)
	}
	return reg
}

// anyReadable reports whether at least one configured extension maps to a
// parser that can actually read files.
func (c *Converter) anyReadable() bool {
	for _, ext := range c.cfg.Extensions {
		p, err := c.parsers.Get(ext)
		if err != nil {
			continue
		}
		if _, legacy := p.(*parser.LegacyParser); !legacy {
			return true
		}
	}
	return false
}

// Close releases the ledger if the Converter opened it.
func (c *Converter) Close() error {
	if c.ownsStore && c.store != nil {
		return c.store.Close()
	}
	return nil
}

// Run discovers source files in Config.Dir, converts them and writes the
// output tables to Config.OutDir. Nothing is written when no records were
// extracted; the Result is still returned together with ErrNoQuestions.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	files, err := discover.Find(c.cfg.Dir, c.cfg.discoverOptions())
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, c.cfg.Dir)
	}
	c.logger.Info("convert: files found", "dir", c.cfg.Dir, "count", len(files))

	res, err := c.Convert(ctx, files)
	if err != nil {
		return res, err
	}

	paths, err := output.WriteAll(c.cfg.outDir(), res.Records, c.writer)
	res.Outputs = paths
	if err != nil {
		return res, fmt.Errorf("writing output: %w", err)
	}
	for _, p := range paths {
		c.logger.Info("convert: wrote table", "path", p)
	}
	return res, nil
}

// Convert converts files with at most Config.Concurrency in flight and
// aggregates their records in input order. Per-file failures are contained in
// the matching FileResult. ErrNoQuestions is returned with the Result when no
// file produced a record.
func (c *Converter) Convert(ctx context.Context, files []discover.File) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Files: make([]FileResult, len(files))}
	if len(files) == 0 {
		return res, ErrNoInputFiles
	}

	c.startRun(ctx, res.RunID)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			res.Files[i] = c.convertOne(ctx, f)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		c.finishRun(context.WithoutCancel(ctx), res, "cancelled")
		return nil, err
	}

	for _, fr := range res.Files {
		res.Records = append(res.Records, fr.Records...)
	}
	c.logger.Info("convert: run complete",
		"run_id", res.RunID, "files", len(files), "failed", len(res.Failed()),
		"records", len(res.Records), "elapsed", time.Since(start).Round(time.Millisecond))

	if len(res.Records) == 0 {
		c.finishRun(ctx, res, "empty")
		return res, ErrNoQuestions
	}
	c.finishRun(ctx, res, "done")
	return res, nil
}

// convertOne never fails; the error is carried in the result.
func (c *Converter) convertOne(ctx context.Context, f discover.File) FileResult {
	fr := FileResult{File: f}
	if err := ctx.Err(); err != nil {
		fr.Err = err
		return fr
	}

	if c.store != nil {
		hash, err := store.HashFile(f.Path)
		if err != nil {
			fr.Err = fmt.Errorf("hashing file: %w", err)
			c.logger.Warn("convert: file skipped", "file", f.Name(), "error", fr.Err)
			return fr
		}
		fr.Hash = hash
		fr.PreviousRun = c.previousRun(ctx, f, hash)
	}

	recs, parsed, err := c.convertFile(ctx, f)
	if err != nil {
		fr.Err = err
		c.logger.Warn("convert: file failed", "file", f.Name(), "format", f.Format, "error", err)
		return fr
	}
	fr.Records = recs
	fr.Count = len(recs)
	fr.Method = parsed.Method
	fr.Metadata = parsed.Metadata
	c.logger.Info("convert: file converted", "file", f.Name(), "records", len(recs), "method", parsed.Method)
	for k, v := range parsed.Metadata {
		c.logger.Debug("convert: file metadata", "file", f.Name(), k, v)
	}
	return fr
}

// previousRun looks up the last run that converted content with the same
// hash. Lookup failures are logged and treated as no match.
func (c *Converter) previousRun(ctx context.Context, f discover.File, hash string) string {
	prev, err := c.store.LatestByHash(ctx, hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ""
	case err != nil:
		c.logger.Warn("ledger: hash lookup failed", "file", f.Name(), "error", err)
		return ""
	}
	c.logger.Info("convert: file unchanged since earlier run", "file", f.Name(), "previous_run", prev.RunID)
	return prev.RunID
}

// ConvertFile parses and ingests a single file. The returned records carry
// the file's base name as Source.
func (c *Converter) ConvertFile(ctx context.Context, f discover.File) ([]question.Record, error) {
	recs, _, err := c.convertFile(ctx, f)
	return recs, err
}

func (c *Converter) convertFile(ctx context.Context, f discover.File) ([]question.Record, *parser.ParseResult, error) {
	if !c.parsers.Supports(f.Format) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	p, err := c.parsers.Get(f.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}

	parsed, err := p.Parse(ctx, f.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	var recs []question.Record
	switch parsed.Kind {
	case parser.KindSheet:
		recs, err = c.ingestSheets(ctx, f, parsed.Sheets)
	case parser.KindLines:
		recs, err = c.narrative.Ingest(ctx, parsed.Lines)
	default:
		err = fmt.Errorf("unknown source kind %v", parsed.Kind)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	name := filepath.Base(f.Path)
	for i := range recs {
		recs[i].Source = name
	}
	return recs, parsed, nil
}

// ingestSheets ingests every sheet. A failing sheet is skipped as long as
// another sheet of the workbook yields records.
func (c *Converter) ingestSheets(ctx context.Context, f discover.File, sheets []*parser.Sheet) ([]question.Record, error) {
	var recs []question.Record
	var firstErr error
	for _, sh := range sheets {
		r, err := c.tabular.Ingest(ctx, sh)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("sheet %q: %w", sh.Name, err)
			}
			c.logger.Debug("convert: sheet skipped", "file", f.Name(), "sheet", sh.Name, "error", err)
			continue
		}
		recs = append(recs, r...)
	}
	if len(recs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return recs, nil
}

// --- ledger ---

// Ledger failures are logged and never fail the conversion.

func (c *Converter) startRun(ctx context.Context, runID string) {
	if c.store == nil {
		return
	}
	if err := c.store.StartRun(ctx, runID, c.cfg.Dir); err != nil {
		c.logger.Warn("ledger: start run failed", "run_id", runID, "error", err)
	}
}

func (c *Converter) finishRun(ctx context.Context, res *Result, status string) {
	if c.store == nil {
		return
	}
	for _, fr := range res.Files {
		doc := store.Document{
			RunID:       res.RunID,
			Path:        fr.File.Path,
			Filename:    fr.File.Name(),
			Format:      fr.File.Format,
			ContentHash: fr.Hash,
			ParseMethod: fr.Method,
			Status:      store.StatusOK,
		}
		if fr.Err != nil {
			doc.Status = store.StatusError
			if errors.Is(fr.Err, ErrUnsupportedFormat) {
				doc.Status = store.StatusSkipped
			}
			doc.Error = fr.Err.Error()
		}
		if _, err := c.store.RecordDocument(ctx, doc, fr.Records); err != nil {
			c.logger.Warn("ledger: record document failed", "file", fr.File.Name(), "error", err)
		}
	}
	if err := c.store.FinishRun(ctx, res.RunID, status, len(res.Files), len(res.Records)); err != nil {
		c.logger.Warn("ledger: finish run failed", "run_id", res.RunID, "error", err)
	}
}

// Formats returns the formats the converter can read.
func (c *Converter) Formats() []string {
	var out []string
	for _, f := range c.parsers.Formats() {
		if p, err := c.parsers.Get(f); err == nil {
			if _, legacy := p.(*parser.LegacyParser); legacy {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// Store returns the ledger, or nil when none is configured.
func (c *Converter) Store() *store.Store {
	return c.store
}
