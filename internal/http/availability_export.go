package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"owl-hotel/internal/models"

	"github.com/xuri/excelize/v2"
)

var availabilitySummaryHeader = []string{
	"Room Type",
	"Total Rooms",
	"Available Rooms",
	"Total Beds",
	"Available Beds",
}

var availabilityRoomsHeader = []string{
	"Floor",
	"Room No",
	"Room Type",
	"Status",
	"Total Beds",
	"Available Beds",
	"Occupied Beds",
	"Guests",
	"Checkin",
	"Checkout",
}

// GenerateAvailabilityExport renders an availability report as an XLSX
// workbook with a "Summary" sheet and a "Rooms" sheet.
func GenerateAvailabilityExport(report *models.AvailabilityReport) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open, so no deferred Close

	summary := make([][]any, 0, len(report.RoomTypes)+1)
	for _, rt := range report.RoomTypes {
		summary = append(summary, []any{rt.RoomType, rt.TotalRooms, rt.AvailableRooms, rt.TotalBeds, rt.AvailableBeds})
	}
	summary = append(summary, []any{"All", report.TotalRooms, report.AvailableRooms, report.TotalBeds, report.AvailableBeds})

	var rooms [][]any
	for _, fl := range report.Floors {
		for _, rm := range fl.Rooms {
			rooms = append(rooms, []any{
				fl.FloorTitle,
				rm.RoomNo,
				rm.RoomType,
				rm.Status,
				rm.TotalBeds,
				rm.AvailableBeds,
				rm.OccupiedBeds,
				strings.Join(rm.GuestNames, ", "),
				rm.CheckinDate,
				rm.CheckoutDate,
			})
		}
	}

	index, err := f.NewSheet("Summary")
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet("Rooms"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	title := fmt.Sprintf("%s [%s, %s)", report.HotelName, report.DateFrom, report.DateTo)
	if err := writeReportSheet(f, "Summary", title, availabilitySummaryHeader, []float64{20, 14, 16, 14, 16}, summary, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeReportSheet(f, "Rooms", "", availabilityRoomsHeader, []float64{16, 12, 14, 20, 12, 14, 14, 40, 12, 12}, rooms, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// writeReportSheet writes a header row, data rows and column widths, then
// freezes the header. A non-empty caption goes in the cell right of the header.
func writeReportSheet(f *excelize.File, sheet, caption string, headers []string, widths []float64, rows [][]any, headerStyle int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if caption != "" {
		if err := setCellValue(f, sheet, len(headers)+2, 1, caption); err != nil {
			return fmt.Errorf("failed to set caption: %w", err)
		}
	}

	for i := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(widths) && widths[i] > 0 {
			if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, values := range rows {
		row := rowIdx + 2
		for colIdx, value := range values {
			if value == nil || value == "" {
				continue
			}
			if err := setCellValue(f, sheet, colIdx+1, row, value); err != nil {
				return fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func setCellValue(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
