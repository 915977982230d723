package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// ManualCreate implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) ManualCreate(ctx context.Context, req attendance.ManualEntryRequest) (attendance.ManualEntryResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ManualEntryResult{}, err
	}

	subject, err := s.ResolveRef(ctx, req.SubjectRef)
	if err != nil {
		return attendance.ManualEntryResult{}, err
	}

	anchor := req.Anchor()
	date := attendance.DayOf(anchor, s.opts.Location)
	start, end := attendance.DayBounds(anchor, s.opts.Location)

	var (
		created []attendance.AttendanceLog
		daily   *attendance.DailyAttendance
	)

	err = s.withSubjectLock(ctx, subject, func(txCtx context.Context) error {
		dayLogs, err := s.LogRepository.ListBySubjectBetween(txCtx, subject, start, end)
		if err != nil {
			return fmt.Errorf("failed to get attendance logs for the day: %w", err)
		}

		hasIn, hasOut := punchTypesPresent(dayLogs)
		if hasIn && hasOut {
			return attendance.ErrDuplicateDayEntry
		}

		sides := []struct {
			ts      *time.Time
			kind    attendance.PunchType
			present bool
		}{
			{req.ParsedCheckIn, attendance.PunchIn, hasIn},
			{req.ParsedCheckOut, attendance.PunchOut, hasOut},
		}
		for _, side := range sides {
			if side.ts == nil || side.present {
				continue
			}
			// the lookup is not bounded to the day: a night-shift check-out can
			// land on a punch already stored for the next day
			existing, err := s.LogRepository.GetBySubjectAndTimestamp(txCtx, subject, *side.ts)
			if err != nil {
				return fmt.Errorf("failed to check existing attendance log: %w", err)
			}
			if existing != nil {
				continue
			}
			log, err := s.LogRepository.Create(txCtx, attendance.AttendanceLog{
				Subject:   subject,
				Timestamp: *side.ts,
				PunchType: side.kind,
				Source:    attendance.SourceManual,
			})
			if err != nil {
				return err
			}
			created = append(created, log)
		}

		if !s.writesManualDaily(subject) {
			return nil
		}
		daily, err = s.upsertManualDaily(txCtx, subject, date, req.ParsedCheckIn, req.ParsedCheckOut, false)
		return err
	})
	if err != nil {
		return attendance.ManualEntryResult{}, err
	}

	return s.manualResult(created, daily), nil
}

// ManualUpdate implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) ManualUpdate(ctx context.Context, req attendance.ManualEntryRequest) (attendance.ManualEntryResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ManualEntryResult{}, err
	}

	subject, err := s.ResolveRef(ctx, req.SubjectRef)
	if err != nil {
		return attendance.ManualEntryResult{}, err
	}

	anchor := req.Anchor()
	date := attendance.DayOf(anchor, s.opts.Location)
	start, end := attendance.DayBounds(anchor, s.opts.Location)

	var (
		updated []attendance.AttendanceLog
		daily   *attendance.DailyAttendance
		current *attendance.DailyAttendance
	)

	err = s.withSubjectLock(ctx, subject, func(txCtx context.Context) error {
		dayLogs, err := s.LogRepository.ListBySubjectBetween(txCtx, subject, start, end)
		if err != nil {
			return fmt.Errorf("failed to get attendance logs for the day: %w", err)
		}

		manualIn := findManual(dayLogs, attendance.PunchIn)
		manualOut := findManual(dayLogs, attendance.PunchOut)
		if manualIn == nil && manualOut == nil {
			return attendance.ErrNoManualEntryFound
		}

		var correctedIn, correctedOut *time.Time
		if req.ParsedCheckIn != nil && manualIn != nil {
			log, err := s.moveManualLog(txCtx, subject, *manualIn, *req.ParsedCheckIn)
			if err != nil {
				return err
			}
			updated = append(updated, log)
			correctedIn = req.ParsedCheckIn
		}
		if req.ParsedCheckOut != nil && manualOut != nil {
			log, err := s.moveManualLog(txCtx, subject, *manualOut, *req.ParsedCheckOut)
			if err != nil {
				return err
			}
			updated = append(updated, log)
			correctedOut = req.ParsedCheckOut
		}

		if !s.writesManualDaily(subject) {
			return nil
		}
		if len(updated) == 0 {
			// a manual log exists but not for the supplied side; report the day as stored
			current, err = s.DailyRepository.GetBySubjectAndDate(txCtx, subject, date)
			if err != nil {
				return fmt.Errorf("failed to get daily attendance: %w", err)
			}
			return nil
		}
		daily, err = s.upsertManualDaily(txCtx, subject, date, correctedIn, correctedOut, true)
		return err
	})
	if err != nil {
		return attendance.ManualEntryResult{}, err
	}

	result := s.manualResult(updated, daily)
	if current != nil {
		summary := s.mapDailyToResponse(*current)
		result.Summary = &summary
	}
	return result, nil
}

// moveManualLog corrects a manual log's timestamp unless another log of the
// subject already sits there.
func (s *ReconciliationServiceImpl) moveManualLog(ctx context.Context, subject attendance.Subject, log attendance.AttendanceLog, ts time.Time) (attendance.AttendanceLog, error) {
	existing, err := s.LogRepository.GetBySubjectAndTimestamp(ctx, subject, ts)
	if err != nil {
		return attendance.AttendanceLog{}, fmt.Errorf("failed to check existing attendance log: %w", err)
	}
	if existing != nil && existing.ID != log.ID {
		return attendance.AttendanceLog{}, attendance.ErrDuplicatePunch
	}
	return s.LogRepository.UpdateTimestamp(ctx, log.ID, ts)
}

// writesManualDaily reports whether manual entries for subject maintain a daily summary.
func (s *ReconciliationServiceImpl) writesManualDaily(subject attendance.Subject) bool {
	switch subject.Kind {
	case attendance.SubjectEmployee:
		return true
	case attendance.SubjectStaff:
		return s.opts.StaffManualDaily
	default:
		return false
	}
}

// upsertManualDaily folds manual check-in/check-out values into the day's
// row. New entries keep the earliest IN and latest OUT but are graded only by
// the pair they supplied. Corrections replace the stored ends and grade the
// resulting row.
func (s *ReconciliationServiceImpl) upsertManualDaily(ctx context.Context, subject attendance.Subject, date time.Time, checkIn, checkOut *time.Time, correction bool) (*attendance.DailyAttendance, error) {
	existing, err := s.DailyRepository.GetBySubjectAndDate(ctx, subject, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily attendance: %w", err)
	}

	daily := attendance.DailyAttendance{Subject: subject, Date: date}
	if existing != nil {
		daily = *existing
	}

	if checkIn != nil && (correction || daily.CheckIn == nil || checkIn.Before(*daily.CheckIn)) {
		t := *checkIn
		daily.CheckIn = &t
	}
	if checkOut != nil && (correction || daily.CheckOut == nil || checkOut.After(*daily.CheckOut)) {
		t := *checkOut
		daily.CheckOut = &t
	}
	daily.Source = attendance.SourceManual
	if correction {
		daily.RecomputeManual(daily.CheckIn, daily.CheckOut)
	} else {
		daily.RecomputeManual(checkIn, checkOut)
	}

	saved, err := s.DailyRepository.Upsert(ctx, daily)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *ReconciliationServiceImpl) manualResult(logs []attendance.AttendanceLog, daily *attendance.DailyAttendance) attendance.ManualEntryResult {
	result := attendance.ManualEntryResult{Logs: make([]attendance.LogResponse, 0, len(logs))}
	for _, log := range logs {
		resp := s.mapLogToResponse(log)
		result.Logs = append(result.Logs, resp)
		s.publish(attendance.EventPunchRecorded, resp)
	}
	if daily != nil {
		summary := s.mapDailyToResponse(*daily)
		result.Summary = &summary
		s.publish(attendance.EventDailyUpdated, summary)
	}
	return result
}

func punchTypesPresent(logs []attendance.AttendanceLog) (hasIn, hasOut bool) {
	for _, log := range logs {
		switch log.PunchType {
		case attendance.PunchIn:
			hasIn = true
		case attendance.PunchOut:
			hasOut = true
		}
	}
	return hasIn, hasOut
}

// findManual returns the first MANUAL log of the given type, or nil.
func findManual(logs []attendance.AttendanceLog, punchType attendance.PunchType) *attendance.AttendanceLog {
	for i := range logs {
		if logs[i].Source == attendance.SourceManual && logs[i].PunchType == punchType {
			return &logs[i]
		}
	}
	return nil
}
