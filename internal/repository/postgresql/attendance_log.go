package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type attendanceLogRepository struct {
	db *database.DB
}

func NewAttendanceLogRepository(db *database.DB) attendance.LogRepository {
	return &attendanceLogRepository{db: db}
}

const logSelect = `
	SELECT l.id, l.employee_id, l.user_id, COALESCE(e.employee_code, u.user_code, ''),
		   COALESCE(e.full_name, u.full_name),
		   l."timestamp", l.punch_type, l.source, l.device_id, l.verify_mode,
		   l.created_at, l.updated_at
	FROM attendance_logs l
	LEFT JOIN employees e ON e.id = l.employee_id
	LEFT JOIN users u ON u.id = l.user_id
`

// subjectColumn returns the column that references subject on a table aliased alias.
func subjectColumn(alias string, subject attendance.Subject) (string, error) {
	switch subject.Kind {
	case attendance.SubjectEmployee:
		return alias + ".employee_id", nil
	case attendance.SubjectStaff:
		return alias + ".user_id", nil
	default:
		return "", attendance.ErrInvalidSubject
	}
}

func scanLog(row pgx.Row) (attendance.AttendanceLog, error) {
	var (
		log                attendance.AttendanceLog
		employeeID, userID *string
		code               string
	)
	err := row.Scan(
		&log.ID, &employeeID, &userID, &code, &log.SubjectName,
		&log.Timestamp, &log.PunchType, &log.Source, &log.DeviceID, &log.VerifyMode,
		&log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceLog{}, err
	}
	log.Subject, err = attendance.SubjectFromColumns(employeeID, userID, code)
	if err != nil {
		return attendance.AttendanceLog{}, err
	}
	return log, nil
}

func collectLogs(rows pgx.Rows) ([]attendance.AttendanceLog, error) {
	defer rows.Close()

	var logs []attendance.AttendanceLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance logs: %w", err)
	}
	return logs, nil
}

// Create implements attendance.LogRepository.
func (r *attendanceLogRepository) Create(ctx context.Context, log attendance.AttendanceLog) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	if log.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceLog{}, fmt.Errorf("failed to generate attendance log id: %w", err)
		}
		log.ID = id.String()
	}

	employeeID, userID := log.Subject.Columns()
	if employeeID == nil && userID == nil {
		return attendance.AttendanceLog{}, attendance.ErrInvalidSubject
	}

	query := `
		INSERT INTO attendance_logs (
			id, employee_id, user_id, "timestamp", punch_type, source, device_id, verify_mode
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		log.ID, employeeID, userID, log.Timestamp, log.PunchType, log.Source, log.DeviceID, log.VerifyMode,
	).Scan(&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.AttendanceLog{}, attendance.ErrDuplicatePunch
		}
		return attendance.AttendanceLog{}, fmt.Errorf("failed to create attendance log: %w", err)
	}

	return log, nil
}

// GetBySubjectAndTimestamp implements attendance.LogRepository.
func (r *attendanceLogRepository) GetBySubjectAndTimestamp(ctx context.Context, subject attendance.Subject, ts time.Time) (*attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("l", subject)
	if err != nil {
		return nil, err
	}

	query := logSelect + ` WHERE ` + col + ` = $1 AND l."timestamp" = $2 LIMIT 1`

	log, err := scanLog(q.QueryRow(ctx, query, subject.ID, ts))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance log by timestamp: %w", err)
	}

	return &log, nil
}

// GetLatestBefore implements attendance.LogRepository.
func (r *attendanceLogRepository) GetLatestBefore(ctx context.Context, subject attendance.Subject, ts time.Time, notBefore time.Time) (*attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("l", subject)
	if err != nil {
		return nil, err
	}

	where := col + ` = $1 AND l."timestamp" < $2`
	args := []interface{}{subject.ID, ts}
	if !notBefore.IsZero() {
		where += ` AND l."timestamp" >= $3`
		args = append(args, notBefore)
	}

	query := logSelect + ` WHERE ` + where + ` ORDER BY l."timestamp" DESC LIMIT 1`

	log, err := scanLog(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous attendance log: %w", err)
	}

	return &log, nil
}

// ListBySubjectBetween implements attendance.LogRepository.
func (r *attendanceLogRepository) ListBySubjectBetween(ctx context.Context, subject attendance.Subject, from, to time.Time) ([]attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("l", subject)
	if err != nil {
		return nil, err
	}

	query := logSelect + ` WHERE ` + col + ` = $1 AND l."timestamp" BETWEEN $2 AND $3 ORDER BY l."timestamp" ASC`

	rows, err := q.Query(ctx, query, subject.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	return collectLogs(rows)
}

// ListBySubject implements attendance.LogRepository.
func (r *attendanceLogRepository) ListBySubject(ctx context.Context, subject attendance.Subject) ([]attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("l", subject)
	if err != nil {
		return nil, err
	}

	query := logSelect + ` WHERE ` + col + ` = $1 ORDER BY l."timestamp" DESC`

	rows, err := q.Query(ctx, query, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	return collectLogs(rows)
}

// UpdateTimestamp implements attendance.LogRepository.
func (r *attendanceLogRepository) UpdateTimestamp(ctx context.Context, id string, ts time.Time) (attendance.AttendanceLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH updated AS (
			UPDATE attendance_logs SET "timestamp" = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT l.id, l.employee_id, l.user_id, COALESCE(e.employee_code, u.user_code, ''),
			   COALESCE(e.full_name, u.full_name),
			   l."timestamp", l.punch_type, l.source, l.device_id, l.verify_mode,
			   l.created_at, l.updated_at
		FROM updated l
		LEFT JOIN employees e ON e.id = l.employee_id
		LEFT JOIN users u ON u.id = l.user_id
	`

	log, err := scanLog(q.QueryRow(ctx, query, id, ts))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceLog{}, attendance.ErrNoManualEntryFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return attendance.AttendanceLog{}, attendance.ErrDuplicatePunch
		}
		return attendance.AttendanceLog{}, fmt.Errorf("failed to update attendance log: %w", err)
	}

	return log, nil
}

// List implements attendance.LogRepository.
func (r *attendanceLogRepository) List(ctx context.Context, filter attendance.LogFilter) ([]attendance.AttendanceLog, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.From != nil {
		baseWhere += fmt.Sprintf(` AND l."timestamp" >= $%d`, argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		baseWhere += fmt.Sprintf(` AND l."timestamp" <= $%d`, argIdx)
		args = append(args, *filter.To)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM attendance_logs l WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance logs: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := logSelect + fmt.Sprintf(` WHERE %s ORDER BY l."timestamp" DESC LIMIT $%d OFFSET $%d`, baseWhere, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance logs: %w", err)
	}
	logs, err := collectLogs(rows)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListSubjectsBetween implements attendance.LogRepository.
func (r *attendanceLogRepository) ListSubjectsBetween(ctx context.Context, from, to time.Time) ([]attendance.Subject, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT l.employee_id, l.user_id, COALESCE(e.employee_code, u.user_code, '')
		FROM attendance_logs l
		LEFT JOIN employees e ON e.id = l.employee_id
		LEFT JOIN users u ON u.id = l.user_id
		WHERE l."timestamp" BETWEEN $1 AND $2
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query punching subjects: %w", err)
	}
	defer rows.Close()

	var subjects []attendance.Subject
	for rows.Next() {
		var (
			employeeID, userID *string
			code               string
		)
		if err := rows.Scan(&employeeID, &userID, &code); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subject, err := attendance.SubjectFromColumns(employeeID, userID, code)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subjects: %w", err)
	}

	return subjects, nil
}
