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
)

const dateLayout = "2006-01-02"

type dailyAttendanceRepository struct {
	db *database.DB
}

func NewDailyAttendanceRepository(db *database.DB) attendance.DailyRepository {
	return &dailyAttendanceRepository{db: db}
}

const dailySelect = `
	SELECT d.id, d.employee_id, d.user_id, COALESCE(e.employee_code, u.user_code, ''),
		   COALESCE(e.full_name, u.full_name),
		   d.date, d.check_in, d.check_out, d.total_hours, d.ot_hours,
		   d.status, d.source, d.created_at, d.updated_at
	FROM daily_attendances d
	LEFT JOIN employees e ON e.id = d.employee_id
	LEFT JOIN users u ON u.id = d.user_id
`

func scanDaily(row pgx.Row) (attendance.DailyAttendance, error) {
	var (
		daily              attendance.DailyAttendance
		employeeID, userID *string
		code               string
	)
	err := row.Scan(
		&daily.ID, &employeeID, &userID, &code, &daily.SubjectName,
		&daily.Date, &daily.CheckIn, &daily.CheckOut, &daily.TotalHours, &daily.OTHours,
		&daily.Status, &daily.Source, &daily.CreatedAt, &daily.UpdatedAt,
	)
	if err != nil {
		return attendance.DailyAttendance{}, err
	}
	daily.Subject, err = attendance.SubjectFromColumns(employeeID, userID, code)
	if err != nil {
		return attendance.DailyAttendance{}, err
	}
	return daily, nil
}

func collectDaily(rows pgx.Rows) ([]attendance.DailyAttendance, error) {
	defer rows.Close()

	var records []attendance.DailyAttendance
	for rows.Next() {
		daily, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily attendance: %w", err)
		}
		records = append(records, daily)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily attendance: %w", err)
	}
	return records, nil
}

// GetBySubjectAndDate implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) GetBySubjectAndDate(ctx context.Context, subject attendance.Subject, date time.Time) (*attendance.DailyAttendance, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("d", subject)
	if err != nil {
		return nil, err
	}

	query := dailySelect + ` WHERE ` + col + ` = $1 AND d.date = $2::date LIMIT 1`

	daily, err := scanDaily(q.QueryRow(ctx, query, subject.ID, date.Format(dateLayout)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily attendance: %w", err)
	}

	return &daily, nil
}

// Create implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) Create(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	q := GetQuerier(ctx, r.db)

	if daily.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.DailyAttendance{}, fmt.Errorf("failed to generate daily attendance id: %w", err)
		}
		daily.ID = id.String()
	}

	employeeID, userID := daily.Subject.Columns()
	if employeeID == nil && userID == nil {
		return attendance.DailyAttendance{}, attendance.ErrInvalidSubject
	}

	// A concurrent writer may have created the row first; DO NOTHING keeps
	// the surrounding transaction usable so the caller can re-read and merge.
	query := `
		INSERT INTO daily_attendances (
			id, employee_id, user_id, date, check_in, check_out, total_hours, ot_hours, status, source
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		daily.ID, employeeID, userID, daily.Date.Format(dateLayout),
		daily.CheckIn, daily.CheckOut, daily.TotalHours, daily.OTHours, daily.Status, daily.Source,
	).Scan(&daily.CreatedAt, &daily.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyAttendance{}, attendance.ErrDailyAttendanceExists
		}
		return attendance.DailyAttendance{}, fmt.Errorf("failed to create daily attendance: %w", err)
	}

	return daily, nil
}

// Update implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) Update(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE daily_attendances
		SET check_in = $2, check_out = $3, total_hours = $4, ot_hours = $5,
			status = $6, source = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		daily.ID, daily.CheckIn, daily.CheckOut, daily.TotalHours, daily.OTHours, daily.Status, daily.Source,
	).Scan(&daily.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyAttendance{}, attendance.ErrDailyAttendanceNotFound
		}
		return attendance.DailyAttendance{}, fmt.Errorf("failed to update daily attendance: %w", err)
	}

	return daily, nil
}

// Upsert implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) Upsert(ctx context.Context, daily attendance.DailyAttendance) (attendance.DailyAttendance, error) {
	q := GetQuerier(ctx, r.db)

	if daily.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.DailyAttendance{}, fmt.Errorf("failed to generate daily attendance id: %w", err)
		}
		daily.ID = id.String()
	}

	employeeID, userID := daily.Subject.Columns()
	var conflict string
	switch daily.Subject.Kind {
	case attendance.SubjectEmployee:
		conflict = "employee_id"
	case attendance.SubjectStaff:
		conflict = "user_id"
	default:
		return attendance.DailyAttendance{}, attendance.ErrInvalidSubject
	}

	query := fmt.Sprintf(`
		INSERT INTO daily_attendances (
			id, employee_id, user_id, date, check_in, check_out, total_hours, ot_hours, status, source
		) VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (%[1]s, date) WHERE %[1]s IS NOT NULL DO UPDATE
		SET check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			total_hours = EXCLUDED.total_hours,
			ot_hours = EXCLUDED.ot_hours,
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, conflict)

	err := q.QueryRow(ctx, query,
		daily.ID, employeeID, userID, daily.Date.Format(dateLayout),
		daily.CheckIn, daily.CheckOut, daily.TotalHours, daily.OTHours, daily.Status, daily.Source,
	).Scan(&daily.ID, &daily.CreatedAt, &daily.UpdatedAt)
	if err != nil {
		return attendance.DailyAttendance{}, fmt.Errorf("failed to upsert daily attendance: %w", err)
	}

	return daily, nil
}

// ListBySubject implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) ListBySubject(ctx context.Context, subject attendance.Subject) ([]attendance.DailyAttendance, error) {
	q := GetQuerier(ctx, r.db)

	col, err := subjectColumn("d", subject)
	if err != nil {
		return nil, err
	}

	query := dailySelect + ` WHERE ` + col + ` = $1 ORDER BY d.date DESC`

	rows, err := q.Query(ctx, query, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily attendance: %w", err)
	}
	return collectDaily(rows)
}

// List implements attendance.DailyRepository.
func (r *dailyAttendanceRepository) List(ctx context.Context, filter attendance.DailyFilter) ([]attendance.DailyAttendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	// Date filter
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND d.date = $%d::date", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND d.date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND d.date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Status filter
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND d.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM daily_attendances d WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count daily attendance: %w", err)
	}

	selectQuery := dailySelect + ` WHERE ` + baseWhere + ` ORDER BY d.date DESC, d.check_in ASC NULLS LAST`

	// Limit 0 means every matching row (used by export)
	if filter.Limit > 0 {
		page := filter.Page
		if page == 0 {
			page = 1
		}
		selectQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, filter.Limit, (page-1)*filter.Limit)
	}

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query daily attendance: %w", err)
	}
	records, err := collectDaily(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
