package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brunobiangulo/quizbank"
	"github.com/brunobiangulo/quizbank/discover"
	"github.com/brunobiangulo/quizbank/output"
	"github.com/brunobiangulo/quizbank/question"
	"github.com/brunobiangulo/quizbank/report"
)

// maxUpload bounds the multipart body of POST /convert.
const maxUpload = 50 << 20

type handler struct {
	conv   *quizbank.Converter
	logger *slog.Logger
}

func newHandler(conv *quizbank.Converter, logger *slog.Logger) *handler {
	return &handler{conv: conv, logger: logger}
}

type fileStatus struct {
	Name        string            `json:"name"`
	Count       int               `json:"count"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	PreviousRun string            `json:"previous_run,omitempty"`
	Error       string            `json:"error,omitempty"`
}

type convertResponse struct {
	RunID   string            `json:"run_id"`
	Records []question.Record `json:"records"`
	Stats   report.Stats      `json:"stats"`
	Files   []fileStatus      `json:"files"`
}

// POST /convert
// Accepts one or more multipart "file" uploads. Responds with the records as
// JSON, or with the merged table as CSV when ?format=csv.
func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with 'file'")
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	tmpDir, err := os.MkdirTemp("", "quizbank-upload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process upload")
		h.logger.Error("creating temp dir", "error", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	paths := make([]string, 0, len(headers))
	for i, fh := range headers {
		// One directory per upload keeps files that share a name apart while
		// the base name stays the record source. Base also prevents path
		// traversal.
		dir := filepath.Join(tmpDir, strconv.Itoa(i))
		if err := os.Mkdir(dir, 0o700); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save file")
			h.logger.Error("creating upload dir", "error", err)
			return
		}
		path := filepath.Join(dir, filepath.Base(fh.Filename))
		if err := saveUpload(fh, path); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save file")
			h.logger.Error("saving uploaded file", "file", fh.Filename, "error", err)
			return
		}
		paths = append(paths, path)
	}

	res, err := h.conv.Convert(r.Context(), discover.FromPaths(paths))
	switch {
	case errors.Is(err, quizbank.ErrNoQuestions):
		resp := newConvertResponse(res)
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "conversion failed")
		h.logger.Error("convert error", "error", err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+output.BaseName+`-合并.csv"`)
		if err := (output.CSVWriter{}).Write(w, res.Records); err != nil {
			h.logger.Error("writing csv response", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, newConvertResponse(res))
}

func newConvertResponse(res *quizbank.Result) convertResponse {
	resp := convertResponse{
		RunID:   res.RunID,
		Records: res.Records,
		Stats:   report.Compute(res.Records),
	}
	if resp.Records == nil {
		resp.Records = []question.Record{}
	}
	for _, f := range res.Files {
		fs := fileStatus{
			Name:        f.File.Name(),
			Count:       f.Count,
			Metadata:    f.Metadata,
			PreviousRun: f.PreviousRun,
		}
		if f.Err != nil {
			fs.Error = f.Err.Error()
		}
		resp.Files = append(resp.Files, fs)
	}
	return resp
}

func saveUpload(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// GET /formats
func (h *handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats": h.conv.Formats(),
	})
}

// GET /runs
func (h *handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s := h.conv.Store()
	if s == nil {
		writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}
	runs, err := s.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		h.logger.Error("list runs error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// GET /runs/{id}/documents
func (h *handler) handleRunDocuments(w http.ResponseWriter, r *http.Request) {
	s := h.conv.Store()
	if s == nil {
		writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}
	docs, err := s.ListDocuments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		h.logger.Error("list documents error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// GET /documents/{id}/questions
func (h *handler) handleDocumentQuestions(w http.ResponseWriter, r *http.Request) {
	s := h.conv.Store()
	if s == nil {
		writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	recs, err := s.Questions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list questions")
		h.logger.Error("list questions error", "document_id", id, "error", err)
		return
	}
	if recs == nil {
		recs = []question.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": recs,
	})
}

// GET /stats
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	s := h.conv.Store()
	if s == nil {
		writeError(w, http.StatusNotFound, "no ledger configured")
		return
	}
	stats, err := s.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		h.logger.Error("stats error", "error", err)
		return
	}
	version, err := s.SchemaVersion(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		h.logger.Error("schema version error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":           stats.Runs,
		"documents":      stats.Documents,
		"questions":      stats.Questions,
		"schema_version": version,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
