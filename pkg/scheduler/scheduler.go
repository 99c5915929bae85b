// Package scheduler assigns employees to shifts in a single greedy
// pass. The pass is strictly in shift input order: an earlier shift can
// consume capacity a later one needed. That order-dependence is a
// deliberate simplification, kept for determinism.
package scheduler

import (
	"fmt"
	"math"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/normalize"
	"github.com/arnavshah/staff-scheduler-go/pkg/timeutil"
)

// Input carries the raw records for one scheduling run. Existing may be
// a list of {shiftId, employeeId} pairs or a shiftId→employeeId map.
type Input struct {
	Shifts       []normalize.Record
	Employees    []normalize.Record
	Availability []normalize.Record
	Existing     any
}

// runState is the per-run accumulator. It is local to one invocation;
// concurrent runs never share it.
type runState struct {
	hours  map[string]float64
	blocks map[string][]timeutil.Block
	counts map[string]int
}

func newRunState() *runState {
	return &runState{
		hours:  make(map[string]float64),
		blocks: make(map[string][]timeutil.Block),
		counts: make(map[string]int),
	}
}

func (st *runState) commit(employeeID string, shift models.Shift) {
	st.hours[employeeID] += shift.Hours
	st.blocks[employeeID] = append(st.blocks[employeeID], timeutil.Block{Start: shift.Start, End: shift.End})
	st.counts[employeeID]++
}

// Run normalizes the raw records and produces the assignment list, the
// issue list, and per-employee totals. It is pure over its inputs and
// deterministic: identical inputs in identical order always yield the
// identical result.
func Run(input Input) models.ScheduleResult {
	employees, index := normalize.Employees(input.Employees)
	windows := normalize.Availability(input.Availability)
	shifts := normalize.Shifts(input.Shifts)
	existing := normalize.ExistingAssignments(input.Existing)

	st := newRunState()
	assignments := make([]models.Assignment, 0, len(shifts))
	issues := []models.Issue{}

	for _, shift := range shifts {
		if !shift.Valid {
			assignments = append(assignments, models.Assignment{
				ShiftID: shift.ID,
				Reason:  "missing start or end time",
			})
			issues = append(issues, models.Issue{
				ShiftID: shift.ID,
				Reason:  "missing start or end time",
				Type:    models.IssueMissingData,
			})
			continue
		}

		released := ""
		if employeeID, ok := existing[shift.ID]; ok {
			if keepExisting(employeeID, shift, index, windows, st) {
				st.commit(employeeID, shift)
				id := employeeID
				assignments = append(assignments, models.Assignment{ShiftID: shift.ID, EmployeeID: &id})
				continue
			}
			released = employeeID
			issues = append(issues, models.Issue{
				ShiftID:    shift.ID,
				EmployeeID: employeeID,
				Reason:     fmt.Sprintf("existing assignment for employee %s was released", employeeID),
				Type:       models.IssueReleasedExisting,
			})
		}

		chosen, reason, issueType := pick(shift, employees, windows, st)
		if chosen == nil {
			assignments = append(assignments, models.Assignment{ShiftID: shift.ID, Reason: reason})
			issues = append(issues, models.Issue{ShiftID: shift.ID, Reason: reason, Type: issueType})
			continue
		}

		st.commit(chosen.ID, shift)
		asgn := models.Assignment{ShiftID: shift.ID, EmployeeID: &chosen.ID}
		if released != "" {
			asgn.Reason = fmt.Sprintf("reassigned after releasing employee %s", released)
		}
		assignments = append(assignments, asgn)
	}

	return models.ScheduleResult{
		Assignments:      assignments,
		Issues:           issues,
		TotalsByEmployee: totals(employees, st),
	}
}

// keepExisting re-checks a prior pairing against the full constraint
// set. Coverage means the window fully contains the shift, not merely
// overlaps it.
func keepExisting(employeeID string, shift models.Shift, index map[string]models.Employee, windows map[string][]models.AvailabilityWindow, st *runState) bool {
	emp, ok := index[employeeID]
	if !ok || !emp.Active() {
		return false
	}
	if !shift.Role.Matches(emp.Role) {
		return false
	}
	if !hasCoveringWindow(windows[employeeID], shift) {
		return false
	}
	if st.hours[employeeID]+shift.Hours > emp.WeeklyCap {
		return false
	}
	if timeutil.Overlaps(st.blocks[employeeID], shift.Start, shift.End) {
		return false
	}
	return true
}

func hasCoveringWindow(windows []models.AvailabilityWindow, shift models.Shift) bool {
	for _, w := range windows {
		if w.Covers(shift.Start, shift.End) {
			return true
		}
	}
	return false
}

func hasPreferredCoveringWindow(windows []models.AvailabilityWindow, shift models.Shift) bool {
	for _, w := range windows {
		if w.Preferred && w.Covers(shift.Start, shift.End) {
			return true
		}
	}
	return false
}

// pick narrows the candidate pool filter by filter and chooses the best
// survivor. The unfilled reason names the first filter that emptied the
// pool.
func pick(shift models.Shift, employees []models.Employee, windows map[string][]models.AvailabilityWindow, st *runState) (*models.Employee, string, string) {
	pool := make([]models.Employee, 0, len(employees))
	for _, emp := range employees {
		if emp.Active() && shift.Role.Matches(emp.Role) {
			pool = append(pool, emp)
		}
	}
	if len(pool) == 0 {
		if shift.Role.Kind == models.RoleAny {
			return nil, "no active employees", models.IssueNoRole
		}
		return nil, fmt.Sprintf("no active employees with role %s", shift.Role.Label()), models.IssueNoRole
	}

	available := pool[:0]
	for _, emp := range pool {
		if hasCoveringWindow(windows[emp.ID], shift) {
			available = append(available, emp)
		}
	}
	if len(available) == 0 {
		return nil, "no employees available during the shift window", models.IssueAvailability
	}

	underCap := available[:0]
	for _, emp := range available {
		if st.hours[emp.ID]+shift.Hours <= emp.WeeklyCap {
			underCap = append(underCap, emp)
		}
	}
	if len(underCap) == 0 {
		return nil, "would exceed weekly cap", models.IssueWeeklyCap
	}

	free := underCap[:0]
	for _, emp := range underCap {
		if !timeutil.Overlaps(st.blocks[emp.ID], shift.Start, shift.End) {
			free = append(free, emp)
		}
	}
	if len(free) == 0 {
		return nil, "conflicting assignments", models.IssueOverlap
	}

	best := free[0]
	for _, emp := range free[1:] {
		if better(emp, best, shift, windows, st) {
			best = emp
		}
	}
	return &best, "", ""
}

// better is the candidate total order: a preferred covering window
// wins, then lower cumulative hours, then fewer committed assignments,
// then the lexicographically smaller name.
func better(a, b models.Employee, shift models.Shift, windows map[string][]models.AvailabilityWindow, st *runState) bool {
	aPref := hasPreferredCoveringWindow(windows[a.ID], shift)
	bPref := hasPreferredCoveringWindow(windows[b.ID], shift)
	if aPref != bPref {
		return aPref
	}
	if st.hours[a.ID] != st.hours[b.ID] {
		return st.hours[a.ID] < st.hours[b.ID]
	}
	if st.counts[a.ID] != st.counts[b.ID] {
		return st.counts[a.ID] < st.counts[b.ID]
	}
	return a.Name < b.Name
}

// totals covers every known employee, including those with zero
// assignments, in employee input order.
func totals(employees []models.Employee, st *runState) []models.EmployeeTotals {
	out := make([]models.EmployeeTotals, 0, len(employees))
	for _, emp := range employees {
		out = append(out, models.EmployeeTotals{
			EmployeeID:  emp.ID,
			Name:        emp.Name,
			Role:        emp.Role,
			WeeklyCap:   emp.WeeklyCap,
			Hours:       math.Round(st.hours[emp.ID]*100) / 100,
			Assignments: st.counts[emp.ID],
		})
	}
	return out
}
