package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/community-hub/internal/model"
)

const exportSheet = "Bookings"

// BookingsWorkbook renders bookings as an xlsx workbook with one row per
// booking.
func BookingsWorkbook(bookings []model.Booking) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headers := []string{"ID", "Title", "Start (UTC)", "End (UTC)", "User ID", "User", "Created (UTC)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	}); err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "G1", style)
	}

	const layout = "2006-01-02 15:04"
	for i, b := range bookings {
		row := i + 2
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), b.ID)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), b.Title)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), b.Start.UTC().Format(layout))
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), b.End.UTC().Format(layout))
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), b.UserID)
		f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), b.UserName)
		f.SetCellValue(exportSheet, fmt.Sprintf("G%d", row), b.CreatedAt.UTC().Format(layout))
	}
	f.SetColWidth(exportSheet, "A", "A", 38)
	f.SetColWidth(exportSheet, "B", "B", 30)
	f.SetColWidth(exportSheet, "C", "D", 18)
	f.SetColWidth(exportSheet, "E", "E", 38)
	f.SetColWidth(exportSheet, "F", "G", 18)

	return f.WriteToBuffer()
}
