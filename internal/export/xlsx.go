// Package export writes the expense list to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spendwise/internal/core"
)

const SheetName = "Expenses"

var header = []any{"ID", "Item", "Amount", "Created At"}

// WriteXLSX writes items and a closing total row as an .xlsx workbook.
func WriteXLSX(w io.Writer, items []core.Expense, total core.Amount) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	_ = f.SetCellStyle(SheetName, "A1", "D1", bold)

	for i, e := range items {
		row := i + 2
		amount, _ := e.Amount.Float64()
		values := []any{e.ID, e.ItemName, amount, e.CreatedAt.UTC().Format("2006-01-02 15:04:05")}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	totalRow := len(items) + 2
	totalValue, _ := total.Float64()
	labelCell, _ := excelize.CoordinatesToCellName(2, totalRow)
	amountCell, _ := excelize.CoordinatesToCellName(3, totalRow)
	if err := f.SetCellValue(SheetName, labelCell, "Total"); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	if err := f.SetCellValue(SheetName, amountCell, totalValue); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	_ = f.SetCellStyle(SheetName, labelCell, amountCell, bold)

	firstAmount, _ := excelize.CoordinatesToCellName(3, 2)
	_ = f.SetCellStyle(SheetName, firstAmount, amountCell, money)
	_ = f.SetColWidth(SheetName, "B", "B", 32)
	_ = f.SetColWidth(SheetName, "D", "D", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
