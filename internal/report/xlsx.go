// Package report renders batch scan results as an XLSX workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/mrz-visa-mcp/internal/pipeline"
	"github.com/ironsheep/mrz-visa-mcp/internal/visa"
)

// SheetName is the worksheet holding one row per scanned file.
const SheetName = "Scans"

// Row statuses.
const (
	StatusDecoded        = "decoded"
	StatusChecksumFailed = "checksum_failed"
	StatusFailed         = "failed"
)

// Entry is one scanned file with its optional visa summary.
type Entry struct {
	pipeline.BatchItem

	// Summary is nil when no assessment was requested or the scan failed.
	Summary *visa.Summary
}

// Headers lists the column titles in order.
var Headers = []string{
	"File",
	"Status",
	"Surname",
	"Given Names",
	"Nationality",
	"Issuing State",
	"Passport Number",
	"Birth Date",
	"Expiry Date",
	"Passport Check",
	"Birth Check",
	"Expiry Check",
	"Visa Verdict",
	"Level",
	"Rules Version",
	"Error",
}

// Status classifies an entry for the Status column.
func Status(e Entry) string {
	switch {
	case e.Err != nil || e.Result == nil:
		return StatusFailed
	case !e.Result.Document.AllChecksValid():
		return StatusChecksumFailed
	default:
		return StatusDecoded
	}
}

// Build creates the workbook in memory.
func Build(entries []Entry) (*excelize.File, error) {
	f, err := newWorkbook(SheetName)
	if err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, e.Name)
		write(2, Status(e))

		if e.Result != nil {
			doc := e.Result.Document
			write(3, doc.Name.Primary)
			write(4, doc.Name.Secondary)
			write(5, doc.Nationality)
			write(6, doc.IssuingState)
			write(7, doc.PassportNumber)
			write(8, doc.BirthDateDisplay())
			write(9, doc.ExpiryDateDisplay())
			write(10, doc.PassportNumberValid)
			write(11, doc.BirthDateValid)
			write(12, doc.ExpiryDateValid)
		}

		if e.Summary != nil {
			write(13, e.Summary.Verdict)
			write(14, e.Summary.Level)
			write(15, e.Summary.RulesVersion)
		}

		write(16, e.ErrorText())
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "A", 32) // file
	_ = f.SetColWidth(SheetName, "B", "B", 16) // status
	_ = f.SetColWidth(SheetName, "C", "D", 24) // names
	_ = f.SetColWidth(SheetName, "E", "F", 12) // states
	_ = f.SetColWidth(SheetName, "G", "I", 14) // number, dates
	_ = f.SetColWidth(SheetName, "J", "L", 12) // checks
	_ = f.SetColWidth(SheetName, "M", "M", 48) // verdict
	_ = f.SetColWidth(SheetName, "N", "O", 14) // level, version
	_ = f.SetColWidth(SheetName, "P", "P", 48) // error

	return f, nil
}

// newWorkbook returns a workbook whose only sheet is named sheet. The file
// is closed when the rename fails.
func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	return f, nil
}

// WriteXLSX writes the workbook for entries to w.
func WriteXLSX(w io.Writer, entries []Entry) error {
	f, err := Build(entries)
	if err != nil {
		return fmt.Errorf("xlsx build: %w", err)
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
