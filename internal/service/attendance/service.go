package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

// Publisher receives live feed events. *sse.Hub satisfies it.
type Publisher interface {
	Publish(event sse.Event)
}

// Options are the policy knobs of the reconciliation pipeline.
type Options struct {
	// Location decides calendar day boundaries
	Location *time.Location
	// SequencePolicy decides how far back toggle inference looks
	SequencePolicy attendance.SequencePolicy
	// StaffManualDaily lets manual entries for staff users write a daily summary
	StaffManualDaily bool
}

type ReconciliationServiceImpl struct {
	attendance.IdentityResolver
	attendance.LogRepository
	attendance.DailyRepository
	tx        attendance.TxManager
	locker    keylock.Locker
	publisher Publisher
	opts      Options
}

func NewReconciliationService(
	resolver attendance.IdentityResolver,
	logRepo attendance.LogRepository,
	dailyRepo attendance.DailyRepository,
	tx attendance.TxManager,
	locker keylock.Locker,
	publisher Publisher,
	opts Options,
) *ReconciliationServiceImpl {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SequencePolicy == "" {
		opts.SequencePolicy = attendance.SequenceContinuous
	}
	return &ReconciliationServiceImpl{
		IdentityResolver: resolver,
		LogRepository:    logRepo,
		DailyRepository:  dailyRepo,
		tx:               tx,
		locker:           locker,
		publisher:        publisher,
		opts:             opts,
	}
}

var _ attendance.ReconciliationService = (*ReconciliationServiceImpl)(nil)

// withSubjectLock runs fn in one transaction while holding the subject's lock.
func (s *ReconciliationServiceImpl) withSubjectLock(ctx context.Context, subject attendance.Subject, fn func(txCtx context.Context) error) error {
	release, err := s.locker.Lock(ctx, subject.Key())
	if err != nil {
		return fmt.Errorf("failed to lock subject %s: %w", subject.Key(), err)
	}
	defer release()

	return s.tx.WithinTransaction(ctx, fn)
}

func (s *ReconciliationServiceImpl) publish(event string, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(sse.Event{Topic: attendance.EventTopic, Event: event, Data: data})
}

// GetLogsForSubject implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) GetLogsForSubject(ctx context.Context, ref string) ([]attendance.LogResponse, error) {
	subject, err := s.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	logs, err := s.LogRepository.ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance logs: %w", err)
	}

	responses := make([]attendance.LogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, s.mapLogToResponse(log))
	}
	return responses, nil
}

// GetDailyForSubject implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) GetDailyForSubject(ctx context.Context, ref string) ([]attendance.DailyAttendanceResponse, error) {
	subject, err := s.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	records, err := s.DailyRepository.ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily attendance: %w", err)
	}

	responses := make([]attendance.DailyAttendanceResponse, 0, len(records))
	for _, daily := range records {
		responses = append(responses, s.mapDailyToResponse(daily))
	}
	return responses, nil
}

// ListLogs implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) ListLogs(ctx context.Context, filter attendance.LogFilter) (attendance.ListLogsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListLogsResponse{}, err
	}

	if filter.Date != nil && *filter.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", *filter.Date, s.opts.Location)
		if err != nil {
			return attendance.ListLogsResponse{}, fmt.Errorf("failed to parse date filter: %w", err)
		}
		from, to := attendance.DayBounds(day, s.opts.Location)
		filter.From, filter.To = &from, &to
	}

	logs, total, err := s.LogRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListLogsResponse{}, fmt.Errorf("failed to list attendance logs: %w", err)
	}

	responses := make([]attendance.LogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, s.mapLogToResponse(log))
	}

	totalPages, showing := paginate(filter.Page, filter.Limit, total)

	return attendance.ListLogsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Logs:       responses,
	}, nil
}

// ListDaily implements attendance.ReconciliationService.
func (s *ReconciliationServiceImpl) ListDaily(ctx context.Context, filter attendance.DailyFilter) (attendance.ListDailyResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListDailyResponse{}, err
	}

	records, total, err := s.DailyRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListDailyResponse{}, fmt.Errorf("failed to list daily attendance: %w", err)
	}

	responses := make([]attendance.DailyAttendanceResponse, 0, len(records))
	for _, daily := range records {
		responses = append(responses, s.mapDailyToResponse(daily))
	}

	totalPages, showing := paginate(filter.Page, filter.Limit, total)

	return attendance.ListDailyResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Daily:      responses,
	}, nil
}

func paginate(page, limit int, total int64) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	showing := fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}
	return totalPages, showing
}

// timePtrToString safely converts a *time.Time to a string in loc.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

func subjectFields(subject attendance.Subject) (kind string, employeeID, userID *string) {
	employeeID, userID = subject.Columns()
	return string(subject.Kind), employeeID, userID
}

func (s *ReconciliationServiceImpl) mapLogToResponse(log attendance.AttendanceLog) attendance.LogResponse {
	kind, employeeID, userID := subjectFields(log.Subject)
	return attendance.LogResponse{
		ID:          log.ID,
		SubjectType: kind,
		EmployeeID:  employeeID,
		UserID:      userID,
		SubjectCode: log.Subject.Code,
		SubjectName: log.SubjectName,
		Timestamp:   log.Timestamp.In(s.opts.Location).Format(time.RFC3339),
		PunchType:   string(log.PunchType),
		Source:      string(log.Source),
		DeviceID:    log.DeviceID,
		VerifyMode:  log.VerifyMode,
		CreatedAt:   log.CreatedAt.In(s.opts.Location).Format(time.RFC3339),
	}
}

func (s *ReconciliationServiceImpl) mapDailyToResponse(daily attendance.DailyAttendance) attendance.DailyAttendanceResponse {
	kind, employeeID, userID := subjectFields(daily.Subject)
	return attendance.DailyAttendanceResponse{
		ID:          daily.ID,
		SubjectType: kind,
		EmployeeID:  employeeID,
		UserID:      userID,
		SubjectCode: daily.Subject.Code,
		SubjectName: daily.SubjectName,
		Date:        daily.Date.Format("2006-01-02"),
		CheckIn:     timePtrToString(daily.CheckIn, s.opts.Location),
		CheckOut:    timePtrToString(daily.CheckOut, s.opts.Location),
		TotalHours:  daily.TotalHours,
		OTHours:     daily.OTHours,
		Status:      string(daily.Status),
		Source:      string(daily.Source),
		UpdatedAt:   daily.UpdatedAt.In(s.opts.Location).Format(time.RFC3339),
	}
}
