package paysheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/folhapay/remittance/internal/domain"
)

const resultsSheet = "Results"

var resultHeaders = []string{
	"Control number", "Status", "Occurrence", "Message", "Settled amount", "Settlement date", "Applied at",
}

// ResultsXLSX renders reconciliation results as a single-sheet workbook.
func ResultsXLSX(results []domain.ReconciliationResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(resultsSheet, cell, h)
		f.SetCellStyle(resultsSheet, cell, cell, bold)
	}

	for i, r := range results {
		row := i + 2
		settled := ""
		if !r.SettlementDate.IsZero() {
			settled = r.SettlementDate.Format("2006-01-02")
		}
		values := []any{
			r.ControlNumber, string(r.Status), r.OccurrenceCode, r.Message,
			r.SettledAmount.Decimal().InexactFloat64(), settled,
			r.AppliedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
	}

	for i, h := range resultHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(h) + 4)
		if width < 14 {
			width = 14
		}
		f.SetColWidth(resultsSheet, col, col, width)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
