package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/extrame/xls"
)

// ErrInvalidXLS is returned for .xls files that are neither BIFF workbooks
// nor renamed xlsx archives.
var ErrInvalidXLS = errors.New("parser: not an xls workbook")

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

// XLSParser reads legacy BIFF (.xls) workbooks. By default only the first
// sheet is read. Files saved as xlsx but named .xls are handed to XLSXParser.
type XLSParser struct {
	AllSheets bool
}

func (p *XLSParser) SupportedFormats() []string { return []string{"xls"} }

func (p *XLSParser) Kind() Kind { return KindSheet }

func (p *XLSParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	magic, err := readMagic(path, len(oleMagic))
	if err != nil {
		return nil, fmt.Errorf("opening XLS: %w", err)
	}
	switch {
	case bytes.HasPrefix(magic, zipMagic):
		return (&XLSXParser{AllSheets: p.AllSheets}).Parse(ctx, path)
	case !bytes.Equal(magic, oleMagic):
		return nil, ErrInvalidXLS
	}

	sheets, err := p.readSheets(ctx, path)
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		Kind:   KindSheet,
		Sheets: sheets,
		Method: "biff",
		Metadata: map[string]string{
			"sheet_count": strconv.Itoa(len(sheets)),
		},
	}, nil
}

// readSheets recovers from panics in the BIFF decoder, which does not
// validate every record of a damaged file.
func (p *XLSParser) readSheets(ctx context.Context, path string) (sheets []*Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("%w: %v", ErrInvalidXLS, r)
		}
	}()

	wb, closer, err := xls.OpenWithCloser(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXLS, err)
	}
	defer closer.Close()

	n := wb.NumSheets()
	if !p.AllSheets {
		n = min(n, 1)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		sheets = append(sheets, newSheet(ws.Name, sheetRows(ws)))
	}
	return sheets, nil
}

func sheetRows(ws *xls.WorkSheet) [][]string {
	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	// Trailing missing rows carry nothing.
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func readMagic(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	m, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:m], nil
}
