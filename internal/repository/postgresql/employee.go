package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, user_id, employee_code, full_name, employment_status, created_at, updated_at, deleted_at`

func (e *employeeRepositoryImpl) getOne(ctx context.Context, where string, arg string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE ` + where + ` AND deleted_at IS NULL
		ORDER BY (id::text = $1) DESC
		LIMIT 1
	`

	var found employee.Employee
	err := q.QueryRow(ctx, query, arg).Scan(
		&found.ID, &found.UserID, &found.EmployeeCode, &found.FullName, &found.EmploymentStatus,
		&found.CreatedAt, &found.UpdatedAt, &found.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}

	return found, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getOne(ctx, "id::text = $1", id)
}

// GetByEmployeeCode implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByEmployeeCode(ctx context.Context, employeeCode string) (employee.Employee, error) {
	return e.getOne(ctx, "employee_code = $1", employeeCode)
}

// GetByIDOrCode implements employee.EmployeeRepository. An id match wins over a code match.
func (e *employeeRepositoryImpl) GetByIDOrCode(ctx context.Context, ref string) (employee.Employee, error) {
	return e.getOne(ctx, "(id::text = $1 OR employee_code = $1)", ref)
}
