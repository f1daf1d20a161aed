// Package discover finds quiz-bank source files by naming convention.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brunobiangulo/quizbank/parser"
)

// DefaultPrefix is the file name prefix source banks are expected to carry.
const DefaultPrefix = "原始题库"

// DefaultExtensions lists the extensions picked up by default.
var DefaultExtensions = []string{".xlsx", ".xls", ".docx", ".pptx", ".pdf", ".txt"}

// File is a discovered input tagged with its format.
type File struct {
	Path   string      `json:"path"`
	Format string      `json:"format"` // extension without the dot, lowercase
	Kind   parser.Kind `json:"kind"`
}

// Name returns the base name of the file.
func (f File) Name() string { return filepath.Base(f.Path) }

// KindOf tags a format as tabular or narrative by its extension.
func KindOf(format string) parser.Kind {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "xlsx", "xlsm", "xls":
		return parser.KindSheet
	case "docx", "doc", "pptx", "pdf", "txt":
		return parser.KindLines
	}
	return 0
}

// Options controls discovery.
type Options struct {
	Prefix     string   // file name prefix; empty matches every name
	Extensions []string // case-insensitive, with leading dot
}

// DefaultOptions returns the conventional prefix and extensions.
func DefaultOptions() Options {
	return Options{Prefix: DefaultPrefix, Extensions: DefaultExtensions}
}

// Find lists regular files in dir (not recursive) whose name starts with the
// prefix and whose extension is one of opts.Extensions, sorted by name.
// Office lock files ("~$...") are skipped.
func Find(dir string, opts Options) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "~$") || !strings.HasPrefix(name, opts.Prefix) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !hasExtension(opts.Extensions, ext) {
			continue
		}
		format := strings.TrimPrefix(ext, ".")
		files = append(files, File{
			Path:   filepath.Join(dir, name),
			Format: format,
			Kind:   KindOf(format),
		})
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// FromPaths tags explicit paths, ignoring the naming convention.
func FromPaths(paths []string) []File {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		format := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		files = append(files, File{Path: p, Format: format, Kind: KindOf(format)})
	}
	return files
}

func hasExtension(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
