package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// RebuildDay implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) RebuildDay(ctx context.Context, req attendance.RebuildDayRequest) (attendance.DailyAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}

	subject, err := s.ResolveRef(ctx, req.SubjectRef)
	if err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.opts.Location)
	if err != nil {
		return attendance.DailyAttendanceResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	daily, err := s.rebuildSubjectDay(ctx, subject, date)
	if err != nil {
		return attendance.DailyAttendanceResponse{}, err
	}

	summary := s.mapDailyToResponse(daily)
	s.publish(attendance.EventDailyUpdated, summary)
	return summary, nil
}

// RebuildAllForDay implements attendance.ReconciliationService. One subject
// failing does not stop the others; failures are returned joined.
func (s *ReconciliationServiceImpl) RebuildAllForDay(ctx context.Context, date time.Time) (int, error) {
	start, end := attendance.DayBounds(date, s.opts.Location)

	subjects, err := s.LogRepository.ListSubjectsBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to list subjects for %s: %w", start.Format("2006-01-02"), err)
	}

	var (
		rebuilt int
		errs    []error
	)
	for _, subject := range subjects {
		if err := ctx.Err(); err != nil {
			return rebuilt, err
		}

		_, err := s.rebuildSubjectDay(ctx, subject, start)
		switch {
		case err == nil:
			rebuilt++
		case errors.Is(err, attendance.ErrNoLogsForDay):
			// only manual punches of a staff user without manual daily
		default:
			slog.Error("failed to rebuild daily attendance",
				"subject", subject.Key(),
				"date", start.Format("2006-01-02"),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", subject.Key(), err))
		}
	}

	return rebuilt, errors.Join(errs...)
}

// rebuildSubjectDay recomputes a summary from the day's punches: earliest IN,
// latest OUT, and the source of the newest punch.
func (s *ReconciliationServiceImpl) rebuildSubjectDay(ctx context.Context, subject attendance.Subject, day time.Time) (attendance.DailyAttendance, error) {
	date := attendance.DayOf(day, s.opts.Location)
	start, end := attendance.DayBounds(day, s.opts.Location)

	var saved attendance.DailyAttendance
	err := s.withSubjectLock(ctx, subject, func(txCtx context.Context) error {
		logs, err := s.LogRepository.ListBySubjectBetween(txCtx, subject, start, end)
		if err != nil {
			return fmt.Errorf("failed to get attendance logs for the day: %w", err)
		}
		if !s.writesManualDaily(subject) {
			logs = withoutManual(logs)
		}
		if len(logs) == 0 {
			return attendance.ErrNoLogsForDay
		}

		existing, err := s.DailyRepository.GetBySubjectAndDate(txCtx, subject, date)
		if err != nil {
			return fmt.Errorf("failed to get daily attendance: %w", err)
		}

		daily := attendance.DailyAttendance{Subject: subject, Date: date, Status: attendance.StatusPresent}
		if existing != nil {
			daily.ID = existing.ID
		}
		for _, log := range logs {
			switch log.PunchType {
			case attendance.PunchIn:
				if daily.CheckIn == nil || log.Timestamp.Before(*daily.CheckIn) {
					t := log.Timestamp
					daily.CheckIn = &t
				}
			case attendance.PunchOut:
				if daily.CheckOut == nil || log.Timestamp.After(*daily.CheckOut) {
					t := log.Timestamp
					daily.CheckOut = &t
				}
			}
		}
		daily.Source = logs[len(logs)-1].Source
		daily.Recompute()

		saved, err = s.DailyRepository.Upsert(txCtx, daily)
		return err
	})
	if err != nil {
		return attendance.DailyAttendance{}, err
	}

	return saved, nil
}

func withoutManual(logs []attendance.AttendanceLog) []attendance.AttendanceLog {
	filtered := logs[:0:0]
	for _, log := range logs {
		if log.Source != attendance.SourceManual {
			filtered = append(filtered, log)
		}
	}
	return filtered
}
