package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoTextLayer is returned for a PDF whose pages carry no extractable text,
// typically a scan.
var ErrNoTextLayer = errors.New("parser: PDF has no text layer")

// PDFParser extracts the plain text of every page as lines. Scanned pages
// yield no lines; a PDF made only of such pages fails with ErrNoTextLayer.
type PDFParser struct{}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Kind() Kind { return KindLines }

func (p *PDFParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	var lines Lines

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		lines = append(lines, SplitLines(text)...)
	}

	if totalPages > 0 && len(lines) == 0 {
		return nil, fmt.Errorf("%w: %d pages", ErrNoTextLayer, totalPages)
	}

	return &ParseResult{
		Kind:   KindLines,
		Lines:  lines,
		Method: "native",
		Metadata: map[string]string{
			"page_count": strconv.Itoa(totalPages),
		},
	}, nil
}

// SplitLines splits text on line endings and keeps the trimmed, non-empty
// lines.
func SplitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return out
}
