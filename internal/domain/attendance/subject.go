package attendance

import "fmt"

// SubjectKind tells which directory an attendance subject belongs to.
type SubjectKind string

const (
	SubjectEmployee SubjectKind = "employee"
	SubjectStaff    SubjectKind = "user"
)

// Subject is the person a punch or daily record belongs to: either an
// Employee or a staff User. Build it with EmployeeSubject or StaffSubject.
type Subject struct {
	Kind SubjectKind
	ID   string
	Code string
}

func EmployeeSubject(id, code string) Subject {
	return Subject{Kind: SubjectEmployee, ID: id, Code: code}
}

func StaffSubject(id, code string) Subject {
	return Subject{Kind: SubjectStaff, ID: id, Code: code}
}

// Valid reports whether the subject references exactly one directory entry.
func (s Subject) Valid() bool {
	switch s.Kind {
	case SubjectEmployee, SubjectStaff:
		return s.ID != ""
	default:
		return false
	}
}

// Columns maps the subject onto the (employee_id, user_id) column pair.
// Exactly one of the returned pointers is non-nil for a valid subject.
func (s Subject) Columns() (employeeID *string, userID *string) {
	id := s.ID
	switch s.Kind {
	case SubjectEmployee:
		return &id, nil
	case SubjectStaff:
		return nil, &id
	default:
		return nil, nil
	}
}

// Key identifies the subject for locking and event fan-out.
func (s Subject) Key() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// IsEmployee reports whether the subject resolved to the employee directory.
func (s Subject) IsEmployee() bool {
	return s.Kind == SubjectEmployee
}

// SubjectFromColumns rebuilds a Subject from a persisted row.
func SubjectFromColumns(employeeID, userID *string, code string) (Subject, error) {
	switch {
	case employeeID != nil && userID == nil:
		return EmployeeSubject(*employeeID, code), nil
	case userID != nil && employeeID == nil:
		return StaffSubject(*userID, code), nil
	default:
		return Subject{}, ErrInvalidSubject
	}
}
