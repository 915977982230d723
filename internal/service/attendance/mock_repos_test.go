package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
)

// ── directories ──

type mockEmployeeRepo struct {
	byID map[string]employee.Employee
}

func (m *mockEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *mockEmployeeRepo) GetByEmployeeCode(ctx context.Context, code string) (employee.Employee, error) {
	for _, e := range m.byID {
		if e.EmployeeCode == code {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *mockEmployeeRepo) GetByIDOrCode(ctx context.Context, ref string) (employee.Employee, error) {
	if e, err := m.GetByID(ctx, ref); err == nil {
		return e, nil
	}
	return m.GetByEmployeeCode(ctx, ref)
}

type mockUserRepo struct {
	byID map[string]user.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *mockUserRepo) GetByUserCode(ctx context.Context, code string) (user.User, error) {
	for _, u := range m.byID {
		if u.UserCode != nil && *u.UserCode == code {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *mockUserRepo) GetByIDOrCode(ctx context.Context, ref string) (user.User, error) {
	if u, err := m.GetByID(ctx, ref); err == nil {
		return u, nil
	}
	return m.GetByUserCode(ctx, ref)
}

// ── attendance logs ──

type mockLogRepo struct {
	mu   sync.Mutex
	seq  int
	logs []attendance.AttendanceLog
}

func (m *mockLogRepo) Create(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.Subject.Key() == log.Subject.Key() && l.Timestamp.Equal(log.Timestamp) {
			return attendance.AttendanceLog{}, attendance.ErrDuplicatePunch
		}
	}
	m.seq++
	log.ID = fmt.Sprintf("log-%d", m.seq)
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt
	m.logs = append(m.logs, log)
	return log, nil
}

func (m *mockLogRepo) GetBySubjectAndTimestamp(ctx context.Context, subject attendance.Subject, ts time.Time) (*attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.Subject.Key() == subject.Key() && l.Timestamp.Equal(ts) {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

func (m *mockLogRepo) GetLatestBefore(ctx context.Context, subject attendance.Subject, ts time.Time, notBefore time.Time) (*attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *attendance.AttendanceLog
	for i := range m.logs {
		l := m.logs[i]
		if l.Subject.Key() != subject.Key() || !l.Timestamp.Before(ts) {
			continue
		}
		if !notBefore.IsZero() && l.Timestamp.Before(notBefore) {
			continue
		}
		if latest == nil || l.Timestamp.After(latest.Timestamp) {
			found := l
			latest = &found
		}
	}
	return latest, nil
}

func (m *mockLogRepo) ListBySubjectBetween(ctx context.Context, subject attendance.Subject, from, to time.Time) ([]attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceLog
	for _, l := range m.logs {
		if l.Subject.Key() == subject.Key() && !l.Timestamp.Before(from) && !l.Timestamp.After(to) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *mockLogRepo) ListBySubject(ctx context.Context, subject attendance.Subject) ([]attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceLog
	for _, l := range m.logs {
		if l.Subject.Key() == subject.Key() {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *mockLogRepo) UpdateTimestamp(ctx context.Context, id string, ts time.Time) (attendance.AttendanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.logs {
		if m.logs[i].ID == id {
			m.logs[i].Timestamp = ts
			m.logs[i].UpdatedAt = time.Now()
			return m.logs[i], nil
		}
	}
	return attendance.AttendanceLog{}, attendance.ErrNoManualEntryFound
}

func (m *mockLogRepo) List(ctx context.Context, filter attendance.LogFilter) ([]attendance.AttendanceLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceLog
	for _, l := range m.logs {
		if filter.From != nil && l.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && l.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, l)
	}
	total := int64(len(out))
	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := min(start+filter.Limit, len(out))
	return out[start:end], total, nil
}

func (m *mockLogRepo) ListSubjectsBetween(ctx context.Context, from, to time.Time) ([]attendance.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []attendance.Subject
	for _, l := range m.logs {
		if l.Timestamp.Before(from) || l.Timestamp.After(to) || seen[l.Subject.Key()] {
			continue
		}
		seen[l.Subject.Key()] = true
		out = append(out, l.Subject)
	}
	return out, nil
}

func (m *mockLogRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

// ── daily attendance ──

type mockDailyRepo struct {
	mu      sync.Mutex
	seq     int
	records map[string]attendance.DailyAttendance
	creates int
}

func newMockDailyRepo() *mockDailyRepo {
	return &mockDailyRepo{records: make(map[string]attendance.DailyAttendance)}
}

func dailyKey(subject attendance.Subject, date time.Time) string {
	return subject.Key() + "|" + date.Format("2006-01-02")
}

func (m *mockDailyRepo) GetBySubjectAndDate(ctx context.Context, subject attendance.Subject, date time.Time) (*attendance.DailyAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.records[dailyKey(subject, date)]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m *mockDailyRepo) Create(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dailyKey(daily.Subject, daily.Date)
	if _, ok := m.records[key]; ok {
		return attendance.DailyAttendance{}, attendance.ErrDailyAttendanceExists
	}
	m.seq++
	m.creates++
	daily.ID = fmt.Sprintf("daily-%d", m.seq)
	m.records[key] = daily
	return daily, nil
}

func (m *mockDailyRepo) Update(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dailyKey(daily.Subject, daily.Date)
	if existing, ok := m.records[key]; !ok || existing.ID != daily.ID {
		return attendance.DailyAttendance{}, attendance.ErrDailyAttendanceNotFound
	}
	m.records[key] = daily
	return daily, nil
}

func (m *mockDailyRepo) Upsert(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dailyKey(daily.Subject, daily.Date)
	if existing, ok := m.records[key]; ok {
		daily.ID = existing.ID
	} else {
		m.seq++
		m.creates++
		daily.ID = fmt.Sprintf("daily-%d", m.seq)
	}
	m.records[key] = daily
	return daily, nil
}

func (m *mockDailyRepo) ListBySubject(ctx context.Context, subject attendance.Subject) ([]attendance.DailyAttendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.DailyAttendance
	for _, d := range m.records {
		if d.Subject.Key() == subject.Key() {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *mockDailyRepo) List(ctx context.Context, filter attendance.DailyFilter) ([]attendance.DailyAttendance, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.DailyAttendance
	for _, d := range m.records {
		date := d.Date.Format("2006-01-02")
		if filter.Date != nil && *filter.Date != "" && date != *filter.Date {
			continue
		}
		if filter.StartDate != nil && *filter.StartDate != "" && date < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && date > *filter.EndDate {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(d.Status) != *filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	total := int64(len(out))
	if filter.Limit > 0 {
		start := min((filter.Page-1)*filter.Limit, len(out))
		out = out[start:min(start+filter.Limit, len(out))]
	}
	return out, total, nil
}

func (m *mockDailyRepo) get(subject attendance.Subject, date time.Time) (attendance.DailyAttendance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.records[dailyKey(subject, date)]
	return d, ok
}

func (m *mockDailyRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// ── plumbing ──

type mockTxManager struct{}

func (mockTxManager) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Event)
	}
	return names
}

// ── fixture ──

const (
	empID   = "0190a1b2-0000-7000-8000-000000000042"
	staffID = "0190a1b2-0000-7000-8000-0000000000aa"
)

type fixture struct {
	employees *mockEmployeeRepo
	users     *mockUserRepo
	logs      *mockLogRepo
	daily     *mockDailyRepo
	events    *recordingPublisher
	svc       *ReconciliationServiceImpl
}

func strPtr(s string) *string { return &s }

func newFixture(opts Options) *fixture {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	f := &fixture{
		employees: &mockEmployeeRepo{byID: map[string]employee.Employee{
			empID: {ID: empID, EmployeeCode: "042", FullName: "Budi Santoso"},
		}},
		users: &mockUserRepo{byID: map[string]user.User{
			staffID: {ID: staffID, FullName: "Sari HR", UserCode: strPtr("HR01"), Role: user.RoleManager},
		}},
		logs:   &mockLogRepo{},
		daily:  newMockDailyRepo(),
		events: &recordingPublisher{},
	}
	resolver := NewIdentityResolver(f.employees, f.users)
	f.svc = NewReconciliationService(resolver, f.logs, f.daily, mockTxManager{}, keylock.NewMemory(), f.events, opts)
	return f
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 10, hour, minute, 0, 0, time.UTC)
}

var (
	employeeSubject = attendance.EmployeeSubject(empID, "042")
	staffSubject    = attendance.StaffSubject(staffID, "HR01")
	jan10           = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)
