package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/devicepush"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestion(f *fixture) attendance.IngestionService {
	resolver := NewIdentityResolver(f.employees, f.users)
	return NewIngestionService(resolver, f.svc, devicepush.NewParser("", "", time.UTC))
}

func TestIngest_Batch(t *testing.T) {
	f := newFixture(Options{})
	ing := newIngestion(f)

	body := strings.Join([]string{
		"042\t2024-01-10 09:00:00\t1",
		"not-a-row",
		"HR01\t2024-01-10 08:15:00",
		"",
		"042\t2024-01-10 09:00:00\t1",
		"042\tyesterday\t1",
		"999\t2024-01-10 10:00:00\t1",
		"042\t2024-01-10 18:00:00\t15",
	}, "\r\n")

	res := ing.Ingest(context.Background(), "SN-7", strings.NewReader(body))

	assert.Equal(t, attendance.IngestionResult{Received: 7, Recorded: 3, Duplicates: 1, Failed: 3}, res)
	assert.Equal(t, 3, f.logs.count())

	logs, err := f.logs.ListBySubject(context.Background(), employeeSubject)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	out := logs[0]
	assert.Equal(t, attendance.PunchOut, out.PunchType)
	assert.Equal(t, attendance.SourceBiometric, out.Source)
	require.NotNil(t, out.DeviceID)
	assert.Equal(t, "SN-7", *out.DeviceID)
	require.NotNil(t, out.VerifyMode)
	assert.Equal(t, 15, *out.VerifyMode)

	daily, ok := f.daily.get(employeeSubject, jan10)
	require.True(t, ok)
	assert.Equal(t, 9.0, *daily.TotalHours)
}

func TestIngest_DefaultsSerialAndVerifyMode(t *testing.T) {
	f := newFixture(Options{})
	ing := newIngestion(f)

	res := ing.Ingest(context.Background(), "", strings.NewReader("042\t2024-01-10 09:00:00\n"))
	assert.Equal(t, 1, res.Recorded)

	logs, err := f.logs.ListBySubject(context.Background(), employeeSubject)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, devicepush.DefaultSerial, *logs[0].DeviceID)
	assert.Equal(t, 0, *logs[0].VerifyMode)
}

func TestIngest_EmptyBody(t *testing.T) {
	f := newFixture(Options{})
	res := newIngestion(f).Ingest(context.Background(), "SN-7", strings.NewReader("\n\n"))
	assert.Equal(t, attendance.IngestionResult{}, res)
}
