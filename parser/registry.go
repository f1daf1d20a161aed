package parser

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps file formats (lowercase extensions without the dot) to
// parsers. Capabilities are fixed once the registry is configured; callers
// query them with Supports instead of attempting a parse.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with every built-in parser registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	xlsx := &XLSXParser{}
	xls := &XLSParser{}
	docx := &DOCXParser{}
	pptx := &PPTXParser{}
	pdf := &PDFParser{}
	txt := &TextParser{}
	legacy := &LegacyParser{}

	for _, p := range []Parser{legacy, xlsx, xls, docx, pptx, pdf, txt} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

// Get returns the parser for format.
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[normalizeFormat(format)]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	return p, nil
}

// Register installs p for format, replacing any existing parser.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[normalizeFormat(format)] = p
}

// Disable removes format, as if no reader for it were available.
func (r *Registry) Disable(format string) {
	delete(r.parsers, normalizeFormat(format))
}

// Supports reports whether a parser is registered for format.
func (r *Registry) Supports(format string) bool {
	_, ok := r.parsers[normalizeFormat(format)]
	return ok
}

// Formats returns the supported formats in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}
