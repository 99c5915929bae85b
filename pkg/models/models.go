package models

import (
	"strings"
	"time"
)

// RoleKind discriminates the kinds of role requirement a shift can carry.
type RoleKind int

const (
	// RoleAny matches every employee role.
	RoleAny RoleKind = iota
	// RoleExact matches a single named role.
	RoleExact
	// RoleOneOf matches any of a small set of named roles.
	RoleOneOf
)

// RoleRequirement is a shift's role constraint. Roles are stored as
// trimmed, upper-cased tokens so matching is case-insensitive.
type RoleRequirement struct {
	Kind  RoleKind `json:"kind"`
	Roles []string `json:"roles,omitempty"`
}

// AnyRole is the requirement that matches every role.
func AnyRole() RoleRequirement {
	return RoleRequirement{Kind: RoleAny}
}

// ExactRole requires one specific role.
func ExactRole(role string) RoleRequirement {
	return RoleRequirement{Kind: RoleExact, Roles: []string{NormalizeRole(role)}}
}

// OneOfRoles requires any of the given roles.
func OneOfRoles(roles ...string) RoleRequirement {
	normalized := make([]string, 0, len(roles))
	for _, r := range roles {
		if nr := NormalizeRole(r); nr != "" {
			normalized = append(normalized, nr)
		}
	}
	if len(normalized) == 0 {
		return AnyRole()
	}
	if len(normalized) == 1 {
		return RoleRequirement{Kind: RoleExact, Roles: normalized}
	}
	return RoleRequirement{Kind: RoleOneOf, Roles: normalized}
}

// Matches reports whether an employee role satisfies the requirement.
func (r RoleRequirement) Matches(role string) bool {
	switch r.Kind {
	case RoleAny:
		return true
	case RoleExact:
		return NormalizeRole(role) == r.Roles[0]
	case RoleOneOf:
		nr := NormalizeRole(role)
		for _, want := range r.Roles {
			if nr == want {
				return true
			}
		}
	}
	return false
}

// Label renders the requirement for reason strings.
func (r RoleRequirement) Label() string {
	switch r.Kind {
	case RoleExact:
		return r.Roles[0]
	case RoleOneOf:
		return strings.Join(r.Roles, "/")
	}
	return "any role"
}

// NormalizeRole trims and upper-cases a role token.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

// Employee is a canonical staff member, constructed once per run.
type Employee struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	WeeklyCap float64 `json:"weeklyCap"`
}

// Active reports whether the employee can receive assignments.
func (e Employee) Active() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "active")
}

// AvailabilityWindow is one span of time an employee can work.
// Start and End are already range-normalized absolute instants.
type AvailabilityWindow struct {
	EmployeeID string    `json:"employeeId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Preferred  bool      `json:"preferred"`
}

// Covers reports whether the window fully contains the given interval.
// Containment, not mere overlap, is what qualifies a window.
func (w AvailabilityWindow) Covers(start, end time.Time) bool {
	return !w.Start.After(start) && !w.End.Before(end)
}

// Shift is a canonical time slot that needs one employee.
// Valid is false when the source record's start or end failed to parse;
// such shifts are carried through so the output stays aligned with the
// input, but they can never be assigned.
type Shift struct {
	ID    string          `json:"id"`
	Role  RoleRequirement `json:"roleNeeded"`
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Hours float64         `json:"hours"`
	Valid bool            `json:"-"`
}

// Assignment pairs a shift with an employee. A nil EmployeeID means the
// shift was left unfilled; Reason explains why, or notes that a prior
// pairing was released before the slot was refilled.
type Assignment struct {
	ShiftID    string  `json:"shiftId"`
	EmployeeID *string `json:"employeeId"`
	Reason     string  `json:"reason,omitempty"`
}

// Issue is a non-fatal note attached to a scheduling run.
type Issue struct {
	ShiftID    string `json:"shiftId"`
	EmployeeID string `json:"employeeId,omitempty"`
	Reason     string `json:"reason"`
	Type       string `json:"type,omitempty"`
}

// Issue type tags.
const (
	IssueMissingData      = "missing_data"
	IssueNoRole           = "no_role"
	IssueAvailability     = "availability"
	IssueWeeklyCap        = "weekly_cap"
	IssueOverlap          = "overlap"
	IssueReleasedExisting = "released_existing"
)

// EmployeeTotals summarizes one employee's load after a run. Hours are
// rounded to two decimals for display.
type EmployeeTotals struct {
	EmployeeID  string  `json:"employeeId"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	WeeklyCap   float64 `json:"weeklyCap"`
	Hours       float64 `json:"hours"`
	Assignments int     `json:"assignments"`
}

// ScheduleResult is the full output of one scheduling run.
type ScheduleResult struct {
	Assignments      []Assignment     `json:"assignments"`
	Issues           []Issue          `json:"issues"`
	TotalsByEmployee []EmployeeTotals `json:"totalsByEmployee"`
}

// ValidationError is a typed finding from re-checking an assignment set.
type ValidationError struct {
	Type          string `json:"type"`
	ShiftID       string `json:"shiftId,omitempty"`
	ConflictsWith string `json:"conflictsWith,omitempty"`
	EmployeeID    string `json:"employeeId,omitempty"`
	Message       string `json:"message"`
}

// Validation error types. The Scheduler and the Validator must agree on
// every rule these represent.
const (
	ErrMissingShift     = "missing_shift"
	ErrMissingEmployee  = "missing_employee"
	ErrInactiveEmployee = "inactive_employee"
	ErrRoleMismatch     = "role_mismatch"
	ErrAvailability     = "availability"
	ErrWeeklyCap        = "weekly_cap"
	ErrOverlap          = "overlap"
)
