package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")

	// User domain errors
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrSubjectNotFound):
		NotFound(w, "No employee or user matches the given identifier")
	case errors.Is(err, attendance.ErrDuplicateDayEntry):
		Conflict(w, "Check-in and check-out are already recorded for this day")
	case errors.Is(err, attendance.ErrDuplicatePunch):
		Conflict(w, "Another punch is already recorded at this timestamp")
	case errors.Is(err, attendance.ErrNoManualEntryFound):
		NotFound(w, "No manual attendance entry found for this day")
	case errors.Is(err, attendance.ErrNoLogsForDay):
		NotFound(w, "No attendance logs found for this day")
	case errors.Is(err, attendance.ErrDailyAttendanceNotFound):
		NotFound(w, "Daily attendance not found")
	case errors.Is(err, attendance.ErrInvalidTimestamp):
		BadRequest(w, "Invalid punch timestamp", nil)
	case errors.Is(err, attendance.ErrInvalidSubject):
		BadRequest(w, "Attendance must reference exactly one employee or user", nil)
	case errors.Is(err, keylock.ErrLockTimeout):
		Conflict(w, "Attendance for this subject is being updated, try again")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
