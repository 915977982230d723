package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func punch(t *testing.T, svc *ReconciliationServiceImpl, ref string, ts time.Time) attendance.PunchResult {
	t.Helper()
	res, err := svc.CreatePunch(context.Background(), attendance.PunchRequest{
		SubjectRef: ref,
		Timestamp:  ts.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	return res
}

func TestCreatePunch_BiometricRoundTrip(t *testing.T) {
	f := newFixture(Options{})

	in := punch(t, f.svc, "042", at(9, 0))
	assert.Equal(t, "IN", in.Log.PunchType)
	assert.False(t, in.Duplicate)
	require.NotNil(t, in.Summary)
	assert.Equal(t, "PRESENT", in.Summary.Status)
	assert.Nil(t, in.Summary.TotalHours)

	out := punch(t, f.svc, "042", time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, "OUT", out.Log.PunchType)

	daily, ok := f.daily.get(employeeSubject, jan10)
	require.True(t, ok)
	assert.True(t, at(9, 0).Equal(*daily.CheckIn))
	assert.True(t, time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC).Equal(*daily.CheckOut))
	assert.Equal(t, 9.5, *daily.TotalHours)
	assert.Equal(t, 0.5, *daily.OTHours)
	assert.Equal(t, attendance.StatusPresent, daily.Status)
	assert.Equal(t, attendance.SourceBiometric, daily.Source)

	assert.Equal(t, []string{
		attendance.EventPunchRecorded, attendance.EventDailyUpdated,
		attendance.EventPunchRecorded, attendance.EventDailyUpdated,
	}, f.events.names())
}

func TestCreatePunch_DuplicateIsIgnored(t *testing.T) {
	f := newFixture(Options{})

	first := punch(t, f.svc, "042", at(9, 0))
	// sub-second jitter truncates onto the same instant
	second := punch(t, f.svc, "042", at(9, 0).Add(450*time.Millisecond))

	assert.True(t, second.Duplicate)
	assert.Equal(t, attendance.DuplicatePunchMessage, second.Message)
	assert.Nil(t, second.Summary)
	assert.Equal(t, first.Log.ID, second.Log.ID)
	assert.Equal(t, 1, f.logs.count())
}

func TestCreatePunch_ToggleAlternates(t *testing.T) {
	f := newFixture(Options{})

	want := []string{"IN", "OUT", "IN", "OUT", "IN"}
	for i, w := range want {
		res := punch(t, f.svc, "042", at(8+i, 0))
		assert.Equal(t, w, res.Log.PunchType, "punch %d", i)
	}
}

func TestCreatePunch_SequencePolicyAcrossMidnight(t *testing.T) {
	lateIn := time.Date(2024, 1, 10, 22, 0, 0, 0, time.UTC)
	afterMidnight := time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC)

	t.Run("continuous follows yesterday", func(t *testing.T) {
		f := newFixture(Options{SequencePolicy: attendance.SequenceContinuous})
		punch(t, f.svc, "042", lateIn)
		res := punch(t, f.svc, "042", afterMidnight)
		assert.Equal(t, "OUT", res.Log.PunchType)
		require.NotNil(t, res.Summary)
		assert.Equal(t, "2024-01-11", res.Summary.Date)
		assert.Nil(t, res.Summary.CheckIn)
	})

	t.Run("daily reset starts with IN", func(t *testing.T) {
		f := newFixture(Options{SequencePolicy: attendance.SequenceDailyReset})
		punch(t, f.svc, "042", lateIn)
		res := punch(t, f.svc, "042", afterMidnight)
		assert.Equal(t, "IN", res.Log.PunchType)
	})
}

func TestCreatePunch_Errors(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	_, err := f.svc.CreatePunch(ctx, attendance.PunchRequest{SubjectRef: "nobody", Timestamp: at(9, 0).Format(time.RFC3339)})
	assert.ErrorIs(t, err, attendance.ErrSubjectNotFound)

	_, err = f.svc.CreatePunch(ctx, attendance.PunchRequest{SubjectRef: "042", Timestamp: "10/01/2024"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "timestamp")

	assert.Equal(t, 0, f.logs.count())
}

func TestRecordPunch_ConcurrentPunchesShareOneDailyRow(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 25)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := at(8, 0).Add(time.Duration(i) * time.Minute)
			_, err := f.svc.RecordPunch(ctx, employeeSubject, ts, attendance.SourceBiometric, attendance.DeviceMeta{})
			errs <- err
		}(i)
	}
	// device retries racing the originals
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.RecordPunch(ctx, employeeSubject, at(8, i), attendance.SourceBiometric, attendance.DeviceMeta{})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 20, f.logs.count())
	assert.Equal(t, 1, f.daily.len())
	assert.Equal(t, 1, f.daily.creates)
}

func TestListLogs_Pagination(t *testing.T) {
	f := newFixture(Options{})
	for i := 0; i < 3; i++ {
		punch(t, f.svc, "042", at(8+i, 0))
	}

	date := "2024-01-10"
	res, err := f.svc.ListLogs(context.Background(), attendance.LogFilter{Date: &date, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, "1-2 of 3", res.Showing)
	assert.Len(t, res.Logs, 2)

	other := "2024-01-11"
	empty, err := f.svc.ListLogs(context.Background(), attendance.LogFilter{Date: &other})
	require.NoError(t, err)
	assert.Equal(t, "0 of 0", empty.Showing)
	assert.Equal(t, 20, empty.Limit)
}

func TestGetForSubject(t *testing.T) {
	f := newFixture(Options{})
	punch(t, f.svc, "042", at(9, 0))
	punch(t, f.svc, "042", at(18, 0))

	logs, err := f.svc.GetLogsForSubject(context.Background(), empID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "OUT", logs[0].PunchType, "newest first")

	daily, err := f.svc.GetDailyForSubject(context.Background(), "042")
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "employee", daily[0].SubjectType)
	assert.Equal(t, 9.0, *daily[0].TotalHours)
}

// hiddenRowLogRepo hides an already committed punch from the first duplicate
// check, as happens when another instance commits between check and insert.
type hiddenRowLogRepo struct {
	*mockLogRepo
	checks int
}

func (r *hiddenRowLogRepo) GetBySubjectAndTimestamp(ctx context.Context, subject attendance.Subject, ts time.Time) (*attendance.AttendanceLog, error) {
	r.checks++
	if r.checks == 1 {
		return nil, nil
	}
	return r.mockLogRepo.GetBySubjectAndTimestamp(ctx, subject, ts)
}

func TestRecordPunch_InsertRaceIsDuplicate(t *testing.T) {
	f := newFixture(Options{})
	seedLog(t, f, employeeSubject, at(9, 0), attendance.PunchIn, attendance.SourceBiometric)

	logs := &hiddenRowLogRepo{mockLogRepo: f.logs}
	svc := NewReconciliationService(NewIdentityResolver(f.employees, f.users), logs, f.daily, mockTxManager{}, keylock.NewMemory(), f.events, Options{Location: time.UTC})

	res, err := svc.RecordPunch(context.Background(), employeeSubject, at(9, 0), attendance.SourceBiometric, attendance.DeviceMeta{})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, f.logs.count())
	assert.Empty(t, f.events.names())
}
