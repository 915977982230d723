package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// applyToDaily folds one punch into the subject's summary for the punch's
// calendar day, creating the row on the first punch of the day.
func (s *ReconciliationServiceImpl) applyToDaily(ctx context.Context, subject attendance.Subject, ts time.Time, punchType attendance.PunchType, source attendance.Source) (attendance.DailyAttendance, error) {
	date := attendance.DayOf(ts, s.opts.Location)

	existing, err := s.DailyRepository.GetBySubjectAndDate(ctx, subject, date)
	if err != nil {
		return attendance.DailyAttendance{}, fmt.Errorf("failed to get daily attendance: %w", err)
	}

	if existing == nil {
		created, err := s.DailyRepository.Create(ctx, attendance.NewDailyAttendance(subject, date, ts, punchType, source))
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, attendance.ErrDailyAttendanceExists) {
			return attendance.DailyAttendance{}, err
		}

		// Another instance created the row first; merge into theirs.
		existing, err = s.DailyRepository.GetBySubjectAndDate(ctx, subject, date)
		if err != nil {
			return attendance.DailyAttendance{}, fmt.Errorf("failed to re-read daily attendance: %w", err)
		}
		if existing == nil {
			return attendance.DailyAttendance{}, attendance.ErrDailyAttendanceNotFound
		}
	}

	existing.ApplyPunch(ts, punchType, source)

	updated, err := s.DailyRepository.Update(ctx, *existing)
	if err != nil {
		return attendance.DailyAttendance{}, err
	}
	return updated, nil
}
