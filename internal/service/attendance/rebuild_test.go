package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLog(t *testing.T, f *fixture, subject attendance.Subject, ts time.Time, punchType attendance.PunchType, source attendance.Source) {
	t.Helper()
	_, err := f.logs.Create(context.Background(), attendance.AttendanceLog{
		Subject:   subject,
		Timestamp: ts,
		PunchType: punchType,
		Source:    source,
	})
	require.NoError(t, err)
}

func TestRebuildDay_EarliestInLatestOut(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, employeeSubject, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)
	seedLog(t, f, employeeSubject, at(8, 30), attendance.PunchIn, attendance.SourceBiometric)
	seedLog(t, f, employeeSubject, at(17, 0), attendance.PunchOut, attendance.SourceBiometric)
	seedLog(t, f, employeeSubject, at(18, 30), attendance.PunchOut, attendance.SourceManual)

	// a stale summary gets overwritten
	stale := attendance.NewDailyAttendance(employeeSubject, jan10, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)
	_, err := f.daily.Create(context.Background(), stale)
	require.NoError(t, err)

	got, err := f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "042", Date: "2024-01-10"})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-10", got.Date)
	assert.Equal(t, 10.0, *got.TotalHours)
	assert.Equal(t, 1.0, *got.OTHours)
	assert.Equal(t, "PRESENT", got.Status)
	assert.Equal(t, "MANUAL", got.Source, "source follows the newest punch")

	daily, ok := f.daily.get(employeeSubject, jan10)
	require.True(t, ok)
	assert.True(t, at(8, 30).Equal(*daily.CheckIn))
	assert.True(t, at(18, 30).Equal(*daily.CheckOut))
	assert.Equal(t, 1, f.daily.len())
	assert.Equal(t, []string{attendance.EventDailyUpdated}, f.events.names())
}

func TestRebuildDay_OneSidedDayIsProvisional(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, employeeSubject, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)

	got, err := f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "042", Date: "2024-01-10"})
	require.NoError(t, err)
	assert.Equal(t, "PRESENT", got.Status)
	assert.Nil(t, got.TotalHours)
	assert.Nil(t, got.CheckOut)
}

func TestRebuildDay_Errors(t *testing.T) {
	f := newFixture(Options{})

	_, err := f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "042", Date: "2024-01-10"})
	assert.ErrorIs(t, err, attendance.ErrNoLogsForDay)

	_, err = f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "042", Date: "10/01/2024"})
	assert.Error(t, err)

	_, err = f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "ghost", Date: "2024-01-10"})
	assert.ErrorIs(t, err, attendance.ErrSubjectNotFound)
}

func TestRebuildDay_StaffManualPunchesIgnoredWithoutCapability(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, staffSubject, at(9, 0), attendance.PunchIn, attendance.SourceManual)

	_, err := f.svc.RebuildDay(context.Background(), attendance.RebuildDayRequest{SubjectRef: "HR01", Date: "2024-01-10"})
	assert.ErrorIs(t, err, attendance.ErrNoLogsForDay)
	assert.Equal(t, 0, f.daily.len())
}

func TestRebuildAllForDay(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, employeeSubject, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)
	seedLog(t, f, employeeSubject, at(18, 0), attendance.PunchOut, attendance.SourceBiometric)
	seedLog(t, f, staffSubject, at(8, 0), attendance.PunchIn, attendance.SourceBiometric)
	seedLog(t, f, staffSubject, at(12, 0), attendance.PunchOut, attendance.SourceManual)
	// next day is untouched
	seedLog(t, f, employeeSubject, at(9, 0).AddDate(0, 0, 1), attendance.PunchIn, attendance.SourceBiometric)

	n, err := f.svc.RebuildAllForDay(context.Background(), jan10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.daily.len())

	staff, ok := f.daily.get(staffSubject, jan10)
	require.True(t, ok)
	assert.Nil(t, staff.CheckOut, "manual OUT of a staff user is not summarized")
	assert.Equal(t, attendance.StatusPresent, staff.Status)
}

func TestRebuildAllForDay_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, employeeSubject, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := f.svc.RebuildAllForDay(ctx, jan10)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, n)
}
