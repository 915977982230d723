package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type PunchRequest struct {
	SubjectRef string  `json:"subject_ref"`
	Timestamp  string  `json:"timestamp"` // RFC3339
	Source     string  `json:"source"`    // BIOMETRIC (default) or MANUAL
	DeviceID   *string `json:"device_id,omitempty"`
	VerifyMode *int    `json:"verify_mode,omitempty"`

	ParsedTimestamp time.Time `json:"-"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SubjectRef) {
		errs = append(errs, validator.ValidationError{
			Field:   "subject_ref",
			Message: "subject_ref is required",
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if ts, ok := validator.IsValidDateTime(r.Timestamp); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be in ISO8601 format",
		})
	} else {
		r.ParsedTimestamp = ts
	}

	if r.Source == "" {
		r.Source = string(SourceBiometric)
	}
	r.Source = strings.ToUpper(r.Source)
	if !validator.IsInSlice(r.Source, []string{string(SourceBiometric), string(SourceManual)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "source",
			Message: "source must be one of: BIOMETRIC, MANUAL",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DeviceMeta carries the optional biometric terminal details of a punch.
type DeviceMeta struct {
	DeviceID   *string
	VerifyMode *int
}

type PunchResult struct {
	Log       LogResponse              `json:"log"`
	Summary   *DailyAttendanceResponse `json:"summary,omitempty"`
	Duplicate bool                     `json:"duplicate"`
	Message   string                   `json:"message,omitempty"`
}

const DuplicatePunchMessage = "Duplicate punch ignored"

// ========================================
// MANUAL ENTRY DTOs
// ========================================

type ManualEntryRequest struct {
	SubjectRef string  `json:"subject_ref"`
	CheckIn    *string `json:"check_in,omitempty"`  // RFC3339
	CheckOut   *string `json:"check_out,omitempty"` // RFC3339

	ParsedCheckIn  *time.Time `json:"-"`
	ParsedCheckOut *time.Time `json:"-"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SubjectRef) {
		errs = append(errs, validator.ValidationError{
			Field:   "subject_ref",
			Message: "subject_ref is required",
		})
	}

	if r.CheckIn != nil && !validator.IsEmpty(*r.CheckIn) {
		if ts, ok := validator.IsValidDateTime(*r.CheckIn); ok {
			ts = TruncatePunchTime(ts)
			r.ParsedCheckIn = &ts
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in must be in ISO8601 format",
			})
		}
	}

	if r.CheckOut != nil && !validator.IsEmpty(*r.CheckOut) {
		if ts, ok := validator.IsValidDateTime(*r.CheckOut); ok {
			ts = TruncatePunchTime(ts)
			r.ParsedCheckOut = &ts
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be in ISO8601 format",
			})
		}
	}

	if r.ParsedCheckIn == nil && r.ParsedCheckOut == nil && len(errs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "at least one of check_in or check_out is required",
		})
	}

	if r.ParsedCheckIn != nil && r.ParsedCheckOut != nil && r.ParsedCheckOut.Before(*r.ParsedCheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: "check_out must not be before check_in",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Anchor returns the timestamp whose calendar day the entry belongs to.
func (r *ManualEntryRequest) Anchor() time.Time {
	if r.ParsedCheckIn != nil {
		return *r.ParsedCheckIn
	}
	return *r.ParsedCheckOut
}

type ManualEntryResult struct {
	Summary *DailyAttendanceResponse `json:"summary,omitempty"`
	Logs    []LogResponse            `json:"logs"`
}

// ========================================
// REBUILD DTOs
// ========================================

type RebuildDayRequest struct {
	SubjectRef string `json:"subject_ref"`
	Date       string `json:"date"` // YYYY-MM-DD
}

func (r *RebuildDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SubjectRef) {
		errs = append(errs, validator.ValidationError{
			Field:   "subject_ref",
			Message: "subject_ref is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// INGESTION DTOs
// ========================================

type IngestionResult struct {
	Received   int `json:"received"`
	Recorded   int `json:"recorded"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// ========================================
// RESPONSE DTOs
// ========================================

type LogResponse struct {
	ID          string  `json:"id"`
	SubjectType string  `json:"subject_type"`
	EmployeeID  *string `json:"employee_id,omitempty"`
	UserID      *string `json:"user_id,omitempty"`
	SubjectCode string  `json:"subject_code,omitempty"`
	SubjectName *string `json:"subject_name,omitempty"`
	Timestamp   string  `json:"timestamp"`
	PunchType   string  `json:"punch_type"`
	Source      string  `json:"source"`
	DeviceID    *string `json:"device_id,omitempty"`
	VerifyMode  *int    `json:"verify_mode,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type DailyAttendanceResponse struct {
	ID          string   `json:"id"`
	SubjectType string   `json:"subject_type"`
	EmployeeID  *string  `json:"employee_id,omitempty"`
	UserID      *string  `json:"user_id,omitempty"`
	SubjectCode string   `json:"subject_code,omitempty"`
	SubjectName *string  `json:"subject_name,omitempty"`
	Date        string   `json:"date"`
	CheckIn     *string  `json:"check_in,omitempty"`
	CheckOut    *string  `json:"check_out,omitempty"`
	TotalHours  *float64 `json:"total_hours,omitempty"`
	OTHours     *float64 `json:"ot_hours,omitempty"`
	Status      string   `json:"status"`
	Source      string   `json:"source"`
	UpdatedAt   string   `json:"updated_at"`
}

type ListLogsResponse struct {
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
	Showing    string        `json:"showing"`
	Logs       []LogResponse `json:"logs"`
}

type ListDailyResponse struct {
	TotalCount int64                     `json:"total_count"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	TotalPages int                       `json:"total_pages"`
	Showing    string                    `json:"showing"`
	Daily      []DailyAttendanceResponse `json:"daily"`
}

// ========================================
// FILTER DTOs
// ========================================

type LogFilter struct {
	Date  *string `json:"date,omitempty"` // YYYY-MM-DD
	Page  int     `json:"page"`
	Limit int     `json:"limit"`

	// Day window of Date in the attendance timezone, filled in by the service
	From *time.Time `json:"-"`
	To   *time.Time `json:"-"`
}

func (f *LogFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DailyFilter struct {
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *DailyFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)

	dates := []struct {
		field string
		value *string
	}{
		{"date", f.Date},
		{"start_date", f.StartDate},
		{"end_date", f.EndDate},
	}
	for _, d := range dates {
		if d.value == nil || *d.value == "" {
			continue
		}
		if _, valid := validator.IsValidDate(*d.value); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   d.field,
				Message: d.field + " must be in YYYY-MM-DD format",
			})
		}
	}

	if f.Status != nil && *f.Status != "" {
		*f.Status = strings.ToUpper(*f.Status)
		validStatuses := []string{string(StatusPresent), string(StatusHalfDay), string(StatusAbsent)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: PRESENT, HALF_DAY, ABSENT",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validatePagination(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1
	}

	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}
