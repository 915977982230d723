package attendance

import (
	"context"
	"time"
)

// LogRepository defines data access methods for raw punch events.
type LogRepository interface {
	// Create persists a new punch
	Create(ctx context.Context, log AttendanceLog) (AttendanceLog, error)

	// GetBySubjectAndTimestamp returns the punch recorded at exactly ts, or nil
	GetBySubjectAndTimestamp(ctx context.Context, subject Subject, ts time.Time) (*AttendanceLog, error)

	// GetLatestBefore returns the subject's most recent punch strictly before ts
	// and not earlier than notBefore (zero means unbounded), or nil
	GetLatestBefore(ctx context.Context, subject Subject, ts time.Time, notBefore time.Time) (*AttendanceLog, error)

	// ListBySubjectBetween returns the subject's punches within [from, to], oldest first
	ListBySubjectBetween(ctx context.Context, subject Subject, from, to time.Time) ([]AttendanceLog, error)

	// ListBySubject returns every punch of the subject, newest first
	ListBySubject(ctx context.Context, subject Subject) ([]AttendanceLog, error)

	// UpdateTimestamp corrects the instant of an existing punch in place
	UpdateTimestamp(ctx context.Context, id string, ts time.Time) (AttendanceLog, error)

	// List retrieves punches with filters and pagination
	List(ctx context.Context, filter LogFilter) ([]AttendanceLog, int64, error)

	// ListSubjectsBetween returns the distinct subjects that punched within [from, to]
	ListSubjectsBetween(ctx context.Context, from, to time.Time) ([]Subject, error)
}

// DailyRepository defines data access methods for per-day summaries.
type DailyRepository interface {
	// GetBySubjectAndDate returns the summary of a day, or nil
	GetBySubjectAndDate(ctx context.Context, subject Subject, date time.Time) (*DailyAttendance, error)

	// Create inserts a new summary; returns ErrDailyAttendanceExists on a (subject, date) conflict
	Create(ctx context.Context, daily DailyAttendance) (DailyAttendance, error)

	// Update overwrites an existing summary identified by ID
	Update(ctx context.Context, daily DailyAttendance) (DailyAttendance, error)

	// Upsert inserts or overwrites the summary keyed by (subject, date)
	Upsert(ctx context.Context, daily DailyAttendance) (DailyAttendance, error)

	// ListBySubject returns every summary of the subject, newest first
	ListBySubject(ctx context.Context, subject Subject) ([]DailyAttendance, error)

	// List retrieves summaries with filters and pagination
	List(ctx context.Context, filter DailyFilter) ([]DailyAttendance, int64, error)
}

// TxManager runs fn inside a database transaction carried by txCtx.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
