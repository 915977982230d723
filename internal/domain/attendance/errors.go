package attendance

import "errors"

// Attendance domain errors
var (
	// Resolution errors
	ErrSubjectNotFound = errors.New("no employee or user matches the given identifier")
	ErrInvalidSubject  = errors.New("attendance record must reference exactly one employee or user")

	// Manual entry errors
	ErrDuplicateDayEntry  = errors.New("already has check-in and check-out entries for the day")
	ErrNoManualEntryFound = errors.New("no manual attendance entry found for the day")

	// Ingestion errors
	ErrMalformedIngestionRow = errors.New("malformed ingestion row")
	ErrInvalidTimestamp      = errors.New("invalid punch timestamp")
	ErrDuplicatePunch        = errors.New("punch already recorded at this timestamp")

	// General errors
	ErrDailyAttendanceNotFound = errors.New("daily attendance record not found")
	ErrDailyAttendanceExists   = errors.New("daily attendance record already exists")
	ErrNoLogsForDay            = errors.New("no attendance logs found for the day")
)
