package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrLegacyFormat is returned for binary Office formats that have no reader.
var ErrLegacyFormat = errors.New("parser: legacy binary format; save the file as .docx")

// LegacyParser claims binary Word documents (.doc) so that such files are
// reported individually instead of silently ignored.
type LegacyParser struct{}

func (p *LegacyParser) SupportedFormats() []string { return []string{"doc"} }

func (p *LegacyParser) Kind() Kind { return KindLines }

func (p *LegacyParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	return nil, fmt.Errorf("%w: %s", ErrLegacyFormat, filepath.Base(path))
}
