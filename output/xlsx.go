package output

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/quizbank/question"
)

// SheetName is the worksheet name used by XLSXWriter.
const SheetName = "题目"

// XLSXWriter writes a single-sheet workbook.
type XLSXWriter struct{}

func (XLSXWriter) Ext() string { return "xlsx" }

func (XLSXWriter) Write(w io.Writer, records []question.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toCells(Header)); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(r.Fields())); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func toCells(fields []string) []interface{} {
	cells := make([]interface{}, len(fields))
	for i, v := range fields {
		cells[i] = v
	}
	return cells
}
