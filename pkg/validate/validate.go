// Package validate independently re-checks an assignment set, possibly
// modified outside the system, against the same constraints the
// scheduler enforces. It re-derives canonical entities from scratch and
// never mutates or reorders its inputs.
package validate

import (
	"fmt"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/normalize"
)

type employeeBlock struct {
	shiftID string
	shift   models.Shift
}

// Assignments returns the full list of typed findings for the given
// assignment set. Per-assignment checks short-circuit on a missing
// shift or employee; cap and overlap checks run after every assignment
// has been accumulated.
func Assignments(assignments []models.Assignment, shifts, employees, availability []normalize.Record) []models.ValidationError {
	shiftList := normalize.Shifts(shifts)
	shiftIndex := make(map[string]models.Shift, len(shiftList))
	for _, s := range shiftList {
		shiftIndex[s.ID] = s
	}
	_, employeeIndex := normalize.Employees(employees)
	windows := normalize.Availability(availability)

	errs := []models.ValidationError{}
	hours := make(map[string]float64)
	blocks := make(map[string][]employeeBlock)

	for _, asgn := range assignments {
		if asgn.ShiftID == "" || asgn.EmployeeID == nil || *asgn.EmployeeID == "" {
			continue
		}
		employeeID := *asgn.EmployeeID

		shift, ok := shiftIndex[asgn.ShiftID]
		if !ok {
			errs = append(errs, models.ValidationError{
				Type:    models.ErrMissingShift,
				ShiftID: asgn.ShiftID,
				Message: fmt.Sprintf("shift %s not found", asgn.ShiftID),
			})
			continue
		}

		emp, ok := employeeIndex[employeeID]
		if !ok {
			errs = append(errs, models.ValidationError{
				Type:       models.ErrMissingEmployee,
				ShiftID:    asgn.ShiftID,
				EmployeeID: employeeID,
				Message:    fmt.Sprintf("employee %s not found", employeeID),
			})
			continue
		}

		if !emp.Active() {
			errs = append(errs, models.ValidationError{
				Type:       models.ErrInactiveEmployee,
				ShiftID:    asgn.ShiftID,
				EmployeeID: employeeID,
				Message:    fmt.Sprintf("employee %s is not active", employeeID),
			})
		}

		if shift.Role.Kind != models.RoleAny && !shift.Role.Matches(emp.Role) {
			errs = append(errs, models.ValidationError{
				Type:       models.ErrRoleMismatch,
				ShiftID:    asgn.ShiftID,
				EmployeeID: employeeID,
				Message:    fmt.Sprintf("shift %s requires role %s but employee %s has role %s", shift.ID, shift.Role.Label(), employeeID, emp.Role),
			})
		}

		if shift.Valid {
			if !covered(windows[employeeID], shift) {
				errs = append(errs, models.ValidationError{
					Type:       models.ErrAvailability,
					ShiftID:    asgn.ShiftID,
					EmployeeID: employeeID,
					Message:    fmt.Sprintf("employee %s has no availability window covering shift %s", employeeID, shift.ID),
				})
			}
			hours[employeeID] += shift.Hours
			blocks[employeeID] = append(blocks[employeeID], employeeBlock{shiftID: shift.ID, shift: shift})
		}
	}

	// Deterministic order: re-walk the assignment list for employees.
	seen := make(map[string]bool)
	for _, asgn := range assignments {
		if asgn.EmployeeID == nil || *asgn.EmployeeID == "" {
			continue
		}
		employeeID := *asgn.EmployeeID
		if seen[employeeID] {
			continue
		}
		seen[employeeID] = true

		emp, ok := employeeIndex[employeeID]
		if ok && hours[employeeID] > emp.WeeklyCap {
			errs = append(errs, models.ValidationError{
				Type:       models.ErrWeeklyCap,
				EmployeeID: employeeID,
				Message:    fmt.Sprintf("employee %s has %.2f hours, exceeding the weekly cap of %.2f", employeeID, hours[employeeID], emp.WeeklyCap),
			})
		}

		committed := blocks[employeeID]
		for i := 0; i < len(committed); i++ {
			for j := i + 1; j < len(committed); j++ {
				a, b := committed[i], committed[j]
				if a.shift.Start.Before(b.shift.End) && b.shift.Start.Before(a.shift.End) {
					errs = append(errs, models.ValidationError{
						Type:          models.ErrOverlap,
						ShiftID:       a.shiftID,
						ConflictsWith: b.shiftID,
						EmployeeID:    employeeID,
						Message:       fmt.Sprintf("shifts %s and %s overlap for employee %s", a.shiftID, b.shiftID, employeeID),
					})
				}
			}
		}
	}

	return errs
}

func covered(windows []models.AvailabilityWindow, shift models.Shift) bool {
	for _, w := range windows {
		if w.Covers(shift.Start, shift.End) {
			return true
		}
	}
	return false
}
