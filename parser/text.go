package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser handles plain UTF-8 text (.txt) files, one paragraph per line.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt"} }

func (p *TextParser) Kind() Kind { return KindLines }

func (p *TextParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	return &ParseResult{
		Kind:   KindLines,
		Lines:  SplitLines(string(data)),
		Method: "native",
	}, nil
}
