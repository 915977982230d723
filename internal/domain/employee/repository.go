package employee

import "context"

// EmployeeRepository is the read side of the employee directory.
// Lookups return ErrEmployeeNotFound when nothing matches.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmployeeCode(ctx context.Context, employeeCode string) (Employee, error)
	GetByIDOrCode(ctx context.Context, ref string) (Employee, error)
}
