// Package output partitions canonical records and writes them as tables.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunobiangulo/quizbank/question"
)

// BaseName prefixes every output file name.
const BaseName = "转换后的题目"

// Header is the fixed first row of every output table.
var Header = []string{
	"题型(SINGLE/MULTIPLE/JUDGE)",
	"题干",
	"选项(用|分隔;判断题可留空)",
	"答案(如A或ABC)",
	"解析",
}

// ErrUnknownFormat is returned for an output format without a writer.
var ErrUnknownFormat = errors.New("output: unknown format")

// Table is one output partition.
type Table struct {
	Name    string        // file name without extension
	Type    question.Type // empty for the merged table
	Records []question.Record
}

// Partition returns the merged table followed by one table per type that has
// at least one record, in Single, Multiple, Judge order. Record order within
// each table follows the input. Partition returns nil for no records.
func Partition(records []question.Record) []Table {
	if len(records) == 0 {
		return nil
	}
	tables := []Table{{Name: BaseName + "-合并", Records: records}}
	for _, t := range question.Types {
		var recs []question.Record
		for _, r := range records {
			if r.Type == t {
				recs = append(recs, r)
			}
		}
		if len(recs) > 0 {
			tables = append(tables, Table{Name: BaseName + "-" + t.Label(), Type: t, Records: recs})
		}
	}
	return tables
}

// Writer encodes a table into a byte stream.
type Writer interface {
	Write(w io.Writer, records []question.Record) error
	Ext() string
}

// WriterFor returns the writer for format ("csv" or "xlsx").
func WriterFor(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "csv":
		return CSVWriter{}, nil
	case "xlsx":
		return XLSXWriter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteAll partitions records and writes every table into dir, creating it
// if needed. It returns the written paths in partition order.
func WriteAll(dir string, records []question.Record, w Writer) ([]string, error) {
	tables := Partition(records)
	if len(tables) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+"."+w.Ext())
		if err := writeFile(path, t.Records, w); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, records []question.Record, w Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := w.Write(f, records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
