package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportDaily(t *testing.T) {
	f := newFixture(Options{})
	punch(t, f.svc, "042", at(9, 0))
	punch(t, f.svc, "042", at(18, 30))
	punch(t, f.svc, "HR01", at(8, 0))

	svc := NewExportService(f.daily, time.UTC)
	buf, filename, err := svc.ExportDaily(context.Background(), attendance.DailyFilter{Date: strPtr("2024-01-10")})
	require.NoError(t, err)
	assert.Equal(t, "daily_attendance_2024-01-10.xlsx", filename)

	wb, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{exportSheet}, wb.GetSheetList())

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])

	byCode := map[string][]string{}
	for _, row := range rows[1:] {
		byCode[row[2]] = row
	}

	emp := byCode["042"]
	require.NotNil(t, emp)
	assert.Equal(t, "2024-01-10", emp[0])
	assert.Equal(t, "employee", emp[1])
	assert.Equal(t, "2024-01-10 09:00:00", emp[4])
	assert.Equal(t, "2024-01-10 18:30:00", emp[5])
	assert.Equal(t, "9.5", emp[6])
	assert.Equal(t, "0.5", emp[7])
	assert.Equal(t, "PRESENT", emp[8])

	staff := byCode["HR01"]
	require.NotNil(t, staff)
	assert.Equal(t, "user", staff[1])
	assert.Equal(t, "", staff[5])
}

func TestExportDaily_InvalidFilter(t *testing.T) {
	f := newFixture(Options{})
	_, _, err := NewExportService(f.daily, time.UTC).ExportDaily(context.Background(), attendance.DailyFilter{Status: strPtr("late")})
	assert.Error(t, err)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "daily_attendance.xlsx", exportFilename(attendance.DailyFilter{}))
	assert.Equal(t, "daily_attendance_2024-01-01_2024-01-31.xlsx",
		exportFilename(attendance.DailyFilter{StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-31")}))
}
