package attendance

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Daily Attendance"

var exportHeaders = []string{
	"Date", "Subject Type", "Code", "Name", "Check In", "Check Out",
	"Total Hours", "OT Hours", "Status", "Source",
}

type ExportServiceImpl struct {
	attendance.DailyRepository
	loc *time.Location
}

func NewExportService(dailyRepo attendance.DailyRepository, loc *time.Location) attendance.ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &ExportServiceImpl{DailyRepository: dailyRepo, loc: loc}
}

// ExportDaily implements attendance.ExportService.
func (s *ExportServiceImpl) ExportDaily(ctx context.Context, filter attendance.DailyFilter) (*bytes.Buffer, string, error) {
	if err := filter.Validate(); err != nil {
		return nil, "", err
	}
	// every matching row, no paging
	filter.Page, filter.Limit = 0, 0

	records, _, err := s.DailyRepository.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list daily attendance: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheet, "A", "A", 12)
	f.SetColWidth(exportSheet, "B", "C", 14)
	f.SetColWidth(exportSheet, "D", "D", 28)
	f.SetColWidth(exportSheet, "E", "F", 22)
	f.SetColWidth(exportSheet, "G", "J", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, header := range exportHeaders {
		f.SetCellValue(exportSheet, cell(colName(i), 1), header)
	}
	f.SetCellStyle(exportSheet, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)

	row := 2
	for _, daily := range records {
		name := ""
		if daily.SubjectName != nil {
			name = *daily.SubjectName
		}
		values := []interface{}{
			daily.Date.Format("2006-01-02"),
			string(daily.Subject.Kind),
			daily.Subject.Code,
			name,
			s.formatTime(daily.CheckIn),
			s.formatTime(daily.CheckOut),
			floatOrBlank(daily.TotalHours),
			floatOrBlank(daily.OTHours),
			string(daily.Status),
			string(daily.Source),
		}
		for i, v := range values {
			f.SetCellValue(exportSheet, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf, exportFilename(filter), nil
}

func (s *ExportServiceImpl) formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.loc).Format("2006-01-02 15:04:05")
}

func floatOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func exportFilename(filter attendance.DailyFilter) string {
	switch {
	case filter.Date != nil && *filter.Date != "":
		return fmt.Sprintf("daily_attendance_%s.xlsx", *filter.Date)
	case filter.StartDate != nil && *filter.StartDate != "" && filter.EndDate != nil && *filter.EndDate != "":
		return fmt.Sprintf("daily_attendance_%s_%s.xlsx", *filter.StartDate, *filter.EndDate)
	default:
		return "daily_attendance.xlsx"
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
