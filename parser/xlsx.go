package parser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads workbooks. By default only the active sheet is read.
type XLSXParser struct {
	AllSheets bool
}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx", "xlsm"} }

func (p *XLSXParser) Kind() Kind { return KindSheet }

func (p *XLSXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if !p.AllSheets {
		active := f.GetSheetName(f.GetActiveSheetIndex())
		if active == "" && len(names) > 0 {
			active = names[0]
		}
		names = []string{active}
	}

	var sheets []*Sheet
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", name, err)
		}
		sheets = append(sheets, newSheet(name, rows))
	}

	return &ParseResult{
		Kind:   KindSheet,
		Sheets: sheets,
		Method: "native",
		Metadata: map[string]string{
			"sheet_count": strconv.Itoa(len(sheets)),
		},
	}, nil
}
