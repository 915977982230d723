package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

type identityResolver struct {
	employees employee.EmployeeRepository
	users     user.UserRepository
}

// NewIdentityResolver resolves identifiers against the employee directory
// first and falls back to staff users only when no employee matches.
func NewIdentityResolver(employees employee.EmployeeRepository, users user.UserRepository) attendance.IdentityResolver {
	return &identityResolver{employees: employees, users: users}
}

// ResolveCode implements attendance.IdentityResolver.
func (r *identityResolver) ResolveCode(ctx context.Context, code string) (attendance.Subject, error) {
	return r.resolve(ctx, code, r.employees.GetByEmployeeCode, r.users.GetByUserCode)
}

// ResolveRef implements attendance.IdentityResolver.
func (r *identityResolver) ResolveRef(ctx context.Context, ref string) (attendance.Subject, error) {
	return r.resolve(ctx, ref, r.employees.GetByIDOrCode, r.users.GetByIDOrCode)
}

func (r *identityResolver) resolve(
	ctx context.Context,
	key string,
	findEmployee func(context.Context, string) (employee.Employee, error),
	findUser func(context.Context, string) (user.User, error),
) (attendance.Subject, error) {
	if key == "" {
		return attendance.Subject{}, attendance.ErrSubjectNotFound
	}

	emp, err := findEmployee(ctx, key)
	if err == nil {
		return attendance.EmployeeSubject(emp.ID, emp.EmployeeCode), nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return attendance.Subject{}, fmt.Errorf("failed to resolve employee %q: %w", key, err)
	}

	u, err := findUser(ctx, key)
	if err == nil {
		code := ""
		if u.UserCode != nil {
			code = *u.UserCode
		}
		return attendance.StaffSubject(u.ID, code), nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return attendance.Subject{}, fmt.Errorf("failed to resolve user %q: %w", key, err)
	}

	return attendance.Subject{}, attendance.ErrSubjectNotFound
}
