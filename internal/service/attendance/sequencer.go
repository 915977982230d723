package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
)

// CreatePunch implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) CreatePunch(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResult{}, err
	}

	subject, err := s.ResolveRef(ctx, req.SubjectRef)
	if err != nil {
		return attendance.PunchResult{}, err
	}

	return s.RecordPunch(ctx, subject, req.ParsedTimestamp, attendance.Source(req.Source), attendance.DeviceMeta{
		DeviceID:   req.DeviceID,
		VerifyMode: req.VerifyMode,
	})
}

// RecordPunch implements attendance.ReconciliationService. Deduplication,
// toggle inference, the insert and the daily merge happen under the
// subject's lock in a single transaction.
func (s *ReconciliationServiceImpl) RecordPunch(ctx context.Context, subject attendance.Subject, ts time.Time, source attendance.Source, meta attendance.DeviceMeta) (attendance.PunchResult, error) {
	if !subject.Valid() {
		return attendance.PunchResult{}, attendance.ErrInvalidSubject
	}
	if ts.IsZero() {
		return attendance.PunchResult{}, attendance.ErrInvalidTimestamp
	}
	ts = attendance.TruncatePunchTime(ts)

	var (
		log       attendance.AttendanceLog
		daily     attendance.DailyAttendance
		duplicate bool
	)

	err := s.withSubjectLock(ctx, subject, func(txCtx context.Context) error {
		existing, err := s.LogRepository.GetBySubjectAndTimestamp(txCtx, subject, ts)
		if err != nil {
			return fmt.Errorf("failed to check duplicate punch: %w", err)
		}
		if existing != nil {
			log = *existing
			duplicate = true
			return nil
		}

		var notBefore time.Time
		if s.opts.SequencePolicy == attendance.SequenceDailyReset {
			notBefore = attendance.DayOf(ts, s.opts.Location)
		}
		prior, err := s.LogRepository.GetLatestBefore(txCtx, subject, ts, notBefore)
		if err != nil {
			return fmt.Errorf("failed to get previous punch: %w", err)
		}

		log, err = s.LogRepository.Create(txCtx, attendance.AttendanceLog{
			Subject:    subject,
			Timestamp:  ts,
			PunchType:  attendance.NextPunchType(prior),
			Source:     source,
			DeviceID:   meta.DeviceID,
			VerifyMode: meta.VerifyMode,
		})
		if err != nil {
			return err
		}

		daily, err = s.applyToDaily(txCtx, subject, ts, log.PunchType, source)
		return err
	})
	if errors.Is(err, attendance.ErrDuplicatePunch) {
		// lost an insert race to another instance; the unique index kept one row
		existing, lookupErr := s.LogRepository.GetBySubjectAndTimestamp(ctx, subject, ts)
		if lookupErr != nil || existing == nil {
			return attendance.PunchResult{}, err
		}
		log, duplicate, err = *existing, true, nil
	}
	if err != nil {
		return attendance.PunchResult{}, err
	}

	logResponse := s.mapLogToResponse(log)
	if duplicate {
		return attendance.PunchResult{
			Log:       logResponse,
			Duplicate: true,
			Message:   attendance.DuplicatePunchMessage,
		}, nil
	}

	summary := s.mapDailyToResponse(daily)
	s.publish(attendance.EventPunchRecorded, logResponse)
	s.publish(attendance.EventDailyUpdated, summary)

	return attendance.PunchResult{Log: logResponse, Summary: &summary}, nil
}
