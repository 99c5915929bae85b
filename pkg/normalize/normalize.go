// Package normalize turns loosely-shaped input records, as produced by
// external record stores, into the canonical entities the scheduler and
// validator consume. Field names are resolved through small ordered
// alias tables, first against the record itself and then against a
// nested field bag, so both the flat layout and the
// record-with-metadata-plus-fields layout are accepted.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/timeutil"
)

// Record is one raw input record.
type Record map[string]any

// Alias tables, tried in order.
var (
	idAliases          = []string{"id", "employeeId", "employee_id", "recordId", "record_id"}
	nameAliases        = []string{"name", "fullName", "full_name", "employeeName", "employee_name"}
	roleAliases        = []string{"role", "position", "jobTitle", "job_title"}
	statusAliases      = []string{"status", "employmentStatus", "employment_status"}
	capAliases         = []string{"weeklyCap", "weekly_cap", "maxHours", "max_hours", "weeklyHours", "weekly_hours"}
	employeeRefAliases = []string{"employeeId", "employee_id", "employee", "employeeIds", "employee_ids"}
	typeAliases        = []string{"type", "availabilityType", "availability_type"}
	dateAliases        = []string{"date", "day", "shiftDate", "shift_date"}
	startAliases       = []string{"start", "startTime", "start_time", "from"}
	endAliases         = []string{"end", "endTime", "end_time", "to"}
	shiftIDAliases     = []string{"id", "shiftId", "shift_id", "recordId", "record_id"}
	roleNeededAliases  = []string{"roleNeeded", "role_needed", "role", "requiredRole", "required_role"}
	asgnShiftAliases   = []string{"shiftId", "shift_id", "shift"}
	asgnEmpAliases     = []string{"employeeId", "employee_id", "employee"}
)

const defaultWeeklyCap = 40

// Lookup resolves a field by trying each alias against the record's
// top-level keys, then against its nested field bag.
func Lookup(rec Record, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := rec[alias]; ok && v != nil {
			return v, true
		}
	}
	if bag, ok := rec["fields"].(map[string]any); ok {
		for _, alias := range aliases {
			if v, ok := bag[alias]; ok && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

func lookupString(rec Record, aliases []string) (string, bool) {
	v, ok := Lookup(rec, aliases)
	if !ok {
		return "", false
	}
	s, ok := toString(v)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Employees builds the canonical employee list, preserving input order,
// plus an index by id. Records without any id alias are excluded.
func Employees(records []Record) ([]models.Employee, map[string]models.Employee) {
	employees := make([]models.Employee, 0, len(records))
	index := make(map[string]models.Employee, len(records))

	for _, rec := range records {
		id, ok := lookupString(rec, idAliases)
		if !ok {
			continue
		}

		name, _ := lookupString(rec, nameAliases)
		role, _ := lookupString(rec, roleAliases)
		status, ok := lookupString(rec, statusAliases)
		if !ok {
			status = "active"
		}

		weeklyCap := float64(defaultWeeklyCap)
		if v, ok := Lookup(rec, capAliases); ok {
			if f, ok := toFloat(v); ok && f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
				weeklyCap = f
			}
		}

		emp := models.Employee{
			ID:        id,
			Name:      name,
			Role:      models.NormalizeRole(role),
			Status:    status,
			WeeklyCap: weeklyCap,
		}
		employees = append(employees, emp)
		index[id] = emp
	}

	return employees, index
}

// Availability indexes qualifying windows by employee id. A record may
// link one employee or a list of them; it is indexed under each id.
// Windows typed "unavailable" are dropped, as is any window whose
// start or end fails to parse — a half-parsed window is never used.
func Availability(records []Record) map[string][]models.AvailabilityWindow {
	windows := make(map[string][]models.AvailabilityWindow)

	for _, rec := range records {
		ids := employeeRefs(rec)
		if len(ids) == 0 {
			continue
		}

		kind, _ := lookupString(rec, typeAliases)
		kind = strings.ToLower(kind)
		if kind == "unavailable" {
			continue
		}

		date, _ := lookupString(rec, dateAliases)
		startRaw, _ := lookupString(rec, startAliases)
		endRaw, _ := lookupString(rec, endAliases)

		start, okStart := timeutil.Combine(date, startRaw)
		end, okEnd := timeutil.Combine(date, endRaw)
		if !okStart || !okEnd {
			continue
		}
		start, end, ok := timeutil.NormalizeRange(start, end)
		if !ok {
			continue
		}

		for _, id := range ids {
			windows[id] = append(windows[id], models.AvailabilityWindow{
				EmployeeID: id,
				Start:      start,
				End:        end,
				Preferred:  kind == "preferred",
			})
		}
	}

	return windows
}

func employeeRefs(rec Record) []string {
	v, ok := Lookup(rec, employeeRefAliases)
	if !ok {
		return nil
	}
	switch refs := v.(type) {
	case string:
		if s := strings.TrimSpace(refs); s != "" {
			return []string{s}
		}
	case []any:
		ids := make([]string, 0, len(refs))
		for _, item := range refs {
			if s, ok := toString(item); ok && strings.TrimSpace(s) != "" {
				ids = append(ids, strings.TrimSpace(s))
			}
		}
		return ids
	case []string:
		ids := make([]string, 0, len(refs))
		for _, s := range refs {
			if strings.TrimSpace(s) != "" {
				ids = append(ids, strings.TrimSpace(s))
			}
		}
		return ids
	}
	return nil
}

// Shifts builds the canonical shift list in input order. Records
// without any id alias are excluded. Hours are always derived from the
// normalized interval; an explicit hours field in the input is accepted
// but not trusted for any internal comparison.
func Shifts(records []Record) []models.Shift {
	shifts := make([]models.Shift, 0, len(records))

	for _, rec := range records {
		id, ok := lookupString(rec, shiftIDAliases)
		if !ok {
			continue
		}

		roleRaw, _ := lookupString(rec, roleNeededAliases)
		date, _ := lookupString(rec, dateAliases)
		startRaw, _ := lookupString(rec, startAliases)
		endRaw, _ := lookupString(rec, endAliases)

		shift := models.Shift{ID: id, Role: parseRoleRequirement(roleRaw)}

		start, okStart := timeutil.Combine(date, startRaw)
		end, okEnd := timeutil.Combine(date, endRaw)
		if okStart && okEnd {
			if s, e, ok := timeutil.NormalizeRange(start, end); ok {
				shift.Start = s
				shift.End = e
				shift.Hours = e.Sub(s).Hours()
				shift.Valid = true
			}
		}

		shifts = append(shifts, shift)
	}

	return shifts
}

// parseRoleRequirement reads the roleNeeded token. The literal "EITHER"
// is a legacy marker for the any-role requirement; a slash- or
// pipe-separated token becomes a oneOf requirement.
func parseRoleRequirement(raw string) models.RoleRequirement {
	token := models.NormalizeRole(raw)
	if token == "" || token == "EITHER" || token == "ANY" {
		return models.AnyRole()
	}
	for _, sep := range []string{"/", "|"} {
		if strings.Contains(token, sep) {
			return models.OneOfRoles(strings.Split(token, sep)...)
		}
	}
	return models.ExactRole(token)
}

// ExistingAssignments accepts either a list of {shiftId, employeeId}
// pairs or a shiftId→employeeId mapping and normalizes both into one
// map. Entries missing either half are dropped.
func ExistingAssignments(v any) map[string]string {
	existing := make(map[string]string)

	switch input := v.(type) {
	case map[string]string:
		for shiftID, employeeID := range input {
			putExisting(existing, shiftID, employeeID)
		}
	case map[string]any:
		for shiftID, raw := range input {
			if employeeID, ok := toString(raw); ok {
				putExisting(existing, shiftID, employeeID)
			}
		}
	case []any:
		for _, item := range input {
			pair, ok := item.(map[string]any)
			if !ok {
				continue
			}
			shiftID, okShift := lookupString(Record(pair), asgnShiftAliases)
			employeeID, okEmp := lookupString(Record(pair), asgnEmpAliases)
			if okShift && okEmp {
				putExisting(existing, shiftID, employeeID)
			}
		}
	case []Record:
		for _, pair := range input {
			shiftID, okShift := lookupString(pair, asgnShiftAliases)
			employeeID, okEmp := lookupString(pair, asgnEmpAliases)
			if okShift && okEmp {
				putExisting(existing, shiftID, employeeID)
			}
		}
	}

	return existing
}

func putExisting(existing map[string]string, shiftID, employeeID string) {
	shiftID = strings.TrimSpace(shiftID)
	employeeID = strings.TrimSpace(employeeID)
	if shiftID != "" && employeeID != "" {
		existing[shiftID] = employeeID
	}
}
