package attendance

import (
	"bytes"
	"context"
	"io"
	"time"
)

// IdentityResolver maps raw identifiers onto attendance subjects.
type IdentityResolver interface {
	// ResolveCode resolves a device identifier by exact unique code, employee first
	ResolveCode(ctx context.Context, code string) (Subject, error)

	// ResolveRef resolves an internal id or unique code, employee first
	ResolveRef(ctx context.Context, ref string) (Subject, error)
}

// ReconciliationService defines business logic for turning punches into daily attendance
type ReconciliationService interface {
	// CreatePunch records a punch through the dedup/sequence/aggregate pipeline
	CreatePunch(ctx context.Context, req PunchRequest) (PunchResult, error)

	// RecordPunch runs the pipeline for an already resolved subject
	RecordPunch(ctx context.Context, subject Subject, ts time.Time, source Source, meta DeviceMeta) (PunchResult, error)

	// ManualCreate adds HR-entered check-in/check-out for a day
	ManualCreate(ctx context.Context, req ManualEntryRequest) (ManualEntryResult, error)

	// ManualUpdate corrects existing manual punches in place
	ManualUpdate(ctx context.Context, req ManualEntryRequest) (ManualEntryResult, error)

	// RebuildDay recomputes a day's summary from its punches
	RebuildDay(ctx context.Context, req RebuildDayRequest) (DailyAttendanceResponse, error)

	// RebuildAllForDay recomputes the summaries of every subject that punched on date
	RebuildAllForDay(ctx context.Context, date time.Time) (int, error)

	GetLogsForSubject(ctx context.Context, ref string) ([]LogResponse, error)
	GetDailyForSubject(ctx context.Context, ref string) ([]DailyAttendanceResponse, error)
	ListLogs(ctx context.Context, filter LogFilter) (ListLogsResponse, error)
	ListDaily(ctx context.Context, filter DailyFilter) (ListDailyResponse, error)
}

// IngestionService consumes raw device pushes.
type IngestionService interface {
	Ingest(ctx context.Context, serial string, body io.Reader) IngestionResult
}

// ExportService renders daily attendance into spreadsheets.
type ExportService interface {
	ExportDaily(ctx context.Context, filter DailyFilter) (*bytes.Buffer, string, error)
}
