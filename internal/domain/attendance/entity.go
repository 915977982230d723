package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

type Source string

const (
	SourceBiometric Source = "BIOMETRIC"
	SourceManual    Source = "MANUAL"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusHalfDay Status = "HALF_DAY"
	StatusAbsent  Status = "ABSENT"
)

// Working-hour thresholds used by Summarize.
const (
	FullDayDuration = 9 * time.Hour
	HalfDayDuration = 4 * time.Hour
)

// SequencePolicy controls how far back the sequencer looks when inferring
// the direction of a new punch.
type SequencePolicy string

const (
	// SequenceContinuous follows the subject's latest punch regardless of the
	// calendar day, so the first punch after midnight continues yesterday's toggle.
	SequenceContinuous SequencePolicy = "continuous"
	// SequenceDailyReset only looks at punches of the same calendar day.
	SequenceDailyReset SequencePolicy = "daily_reset"
)

type AttendanceLog struct {
	ID         string
	Subject    Subject
	Timestamp  time.Time
	PunchType  PunchType
	Source     Source
	DeviceID   *string
	VerifyMode *int
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO
	SubjectName *string
}

type DailyAttendance struct {
	ID         string
	Subject    Subject
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	TotalHours *float64
	OTHours    *float64
	Status     Status
	Source     Source
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// DTO
	SubjectName *string
}

// Summary is the result of evaluating a worked interval.
type Summary struct {
	TotalHours float64
	OTHours    float64
	Status     Status
}

// TruncatePunchTime drops sub-second precision from a punch timestamp.
func TruncatePunchTime(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

// DayOf returns midnight of the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns the first and last millisecond of the calendar day containing t.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayOf(t, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// NextPunchType toggles from the subject's previous punch. Anything other
// than a prior IN yields IN.
func NextPunchType(prior *AttendanceLog) PunchType {
	if prior != nil && prior.PunchType == PunchIn {
		return PunchOut
	}
	return PunchIn
}

// Summarize evaluates the interval between check-in and check-out.
// Status thresholds are checked on the exact duration; reported hours are rounded to 2 decimals.
func Summarize(checkIn, checkOut time.Time) Summary {
	worked := checkOut.Sub(checkIn)

	status := StatusAbsent
	switch {
	case worked >= FullDayDuration:
		status = StatusPresent
	case worked >= HalfDayDuration:
		status = StatusHalfDay
	}

	overtime := worked - FullDayDuration
	if overtime < 0 {
		overtime = 0
	}

	return Summary{
		TotalHours: roundHours(worked),
		OTHours:    roundHours(overtime),
		Status:     status,
	}
}

func roundHours(d time.Duration) float64 {
	return decimal.NewFromInt(int64(d / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2).
		InexactFloat64()
}

// ApplyPunch merges a punch into the daily record: the earliest IN and the
// latest OUT win, the source is always overwritten, and hours are only
// recomputed once both ends are known.
func (d *DailyAttendance) ApplyPunch(ts time.Time, punchType PunchType, source Source) {
	switch punchType {
	case PunchIn:
		if d.CheckIn == nil || ts.Before(*d.CheckIn) {
			t := ts
			d.CheckIn = &t
		}
	case PunchOut:
		if d.CheckOut == nil || ts.After(*d.CheckOut) {
			t := ts
			d.CheckOut = &t
		}
	}
	d.Source = source
	d.Recompute()
}

// Recompute refreshes hours and status when both ends are present and leaves
// the previous values untouched otherwise.
func (d *DailyAttendance) Recompute() {
	if d.CheckIn == nil || d.CheckOut == nil {
		return
	}
	s := Summarize(*d.CheckIn, *d.CheckOut)
	d.TotalHours = &s.TotalHours
	d.OTHours = &s.OTHours
	d.Status = s.Status
}

// NewDailyAttendance builds the first record of the day from a single punch.
func NewDailyAttendance(subject Subject, date time.Time, ts time.Time, punchType PunchType, source Source) DailyAttendance {
	d := DailyAttendance{
		Subject: subject,
		Date:    date,
		Status:  StatusPresent,
		Source:  source,
	}
	t := ts
	switch punchType {
	case PunchIn:
		d.CheckIn = &t
	case PunchOut:
		d.CheckOut = &t
	}
	return d
}

// RecomputeManual grades the day from the given check-in/check-out pair
// rather than the stored ends. A pair missing either side counts as zero
// hours and is graded by the same thresholds.
func (d *DailyAttendance) RecomputeManual(checkIn, checkOut *time.Time) {
	s := Summary{Status: StatusAbsent}
	if checkIn != nil && checkOut != nil {
		s = Summarize(*checkIn, *checkOut)
	}
	d.TotalHours = &s.TotalHours
	d.OTHours = &s.OTHours
	d.Status = s.Status
}
