package output

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/brunobiangulo/quizbank/question"
)

// CSVWriter writes UTF-8 CSV with a leading byte order mark so spreadsheet
// applications detect the encoding.
type CSVWriter struct{}

func (CSVWriter) Ext() string { return "csv" }

func (CSVWriter) Write(w io.Writer, records []question.Record) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}
