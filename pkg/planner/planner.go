// Package planner is an optional layer above the greedy scheduler: it
// asks an LLM for an assignment proposal, verifies the proposal with
// the validator, and falls back to the greedy pass whenever the
// provider is unconfigured, fails, or proposes an invalid plan. The
// greedy core remains the source of truth for correctness.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/normalize"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
	"github.com/arnavshah/staff-scheduler-go/pkg/validate"
)

// Provider produces an assignment proposal for a prompt.
type Provider interface {
	Propose(ctx context.Context, prompt string) (string, error)
}

// Source tags where a plan came from.
const (
	SourceLLM    = "llm"
	SourceGreedy = "greedy"
)

// Result is a schedule plus the planner that produced it.
type Result struct {
	models.ScheduleResult
	Source string `json:"planner"`
}

// Planner wires a provider to the scheduling core.
type Planner struct {
	provider Provider
	log      *logrus.Logger
}

// New builds a planner. A nil provider means every plan falls through
// to the greedy scheduler.
func New(provider Provider, log *logrus.Logger) *Planner {
	if log == nil {
		log = logrus.New()
	}
	return &Planner{provider: provider, log: log}
}

// Plan produces a schedule for the input, preferring the LLM proposal
// when it passes validation.
func (p *Planner) Plan(ctx context.Context, input scheduler.Input) Result {
	if p.provider == nil {
		return Result{ScheduleResult: scheduler.Run(input), Source: SourceGreedy}
	}

	proposal, err := p.propose(ctx, input)
	if err != nil {
		p.log.WithError(err).Warn("planner falling back to greedy scheduler")
		return Result{ScheduleResult: scheduler.Run(input), Source: SourceGreedy}
	}

	errs := validate.Assignments(proposal, input.Shifts, input.Employees, input.Availability)
	if len(errs) > 0 {
		p.log.WithField("errors", len(errs)).Warn("planner proposal failed validation, using greedy scheduler")
		return Result{ScheduleResult: scheduler.Run(input), Source: SourceGreedy}
	}

	return Result{
		ScheduleResult: models.ScheduleResult{
			Assignments:      proposal,
			Issues:           []models.Issue{},
			TotalsByEmployee: totalsFor(proposal, input),
		},
		Source: SourceLLM,
	}
}

func (p *Planner) propose(ctx context.Context, input scheduler.Input) ([]models.Assignment, error) {
	prompt, err := buildPrompt(input)
	if err != nil {
		return nil, err
	}

	raw, err := p.provider.Propose(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	proposal, err := parseProposal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proposal: %w", err)
	}
	return proposal, nil
}

type promptEntities struct {
	Shifts       []models.Shift                         `json:"shifts"`
	Employees    []models.Employee                      `json:"employees"`
	Availability map[string][]models.AvailabilityWindow `json:"availability"`
}

func buildPrompt(input scheduler.Input) (string, error) {
	employees, _ := normalize.Employees(input.Employees)
	entities := promptEntities{
		Shifts:       normalize.Shifts(input.Shifts),
		Employees:    employees,
		Availability: normalize.Availability(input.Availability),
	}

	data, err := json.Marshal(entities)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a staff scheduling assistant. Assign one employee to each shift.

Rules:
- An employee's role must match the shift's required role (an empty requirement matches any role).
- The employee must have an availability window fully containing the shift interval.
- Total assigned hours per employee must not exceed their weeklyCap.
- No two shifts assigned to the same employee may overlap in time.
- Leave a shift unfilled (employeeId null) with a short reason when no employee qualifies.

Data:
%s

Respond with only a JSON array of {"shiftId": string, "employeeId": string or null, "reason": string optional}.`, data), nil
}

// parseProposal reads the provider response, tolerating a fenced code
// block around the JSON.
func parseProposal(raw string) ([]models.Assignment, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}

	var proposal []models.Assignment
	if err := json.Unmarshal([]byte(raw), &proposal); err != nil {
		return nil, err
	}
	if len(proposal) == 0 {
		return nil, fmt.Errorf("empty proposal")
	}
	return proposal, nil
}

// totalsFor recomputes per-employee totals for an accepted proposal,
// covering every known employee like the greedy scheduler does.
func totalsFor(assignments []models.Assignment, input scheduler.Input) []models.EmployeeTotals {
	employees, _ := normalize.Employees(input.Employees)
	shiftIndex := make(map[string]models.Shift)
	for _, s := range normalize.Shifts(input.Shifts) {
		shiftIndex[s.ID] = s
	}

	hours := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range assignments {
		if a.EmployeeID == nil || *a.EmployeeID == "" {
			continue
		}
		if shift, ok := shiftIndex[a.ShiftID]; ok && shift.Valid {
			hours[*a.EmployeeID] += shift.Hours
			counts[*a.EmployeeID]++
		}
	}

	totals := make([]models.EmployeeTotals, 0, len(employees))
	for _, emp := range employees {
		totals = append(totals, models.EmployeeTotals{
			EmployeeID:  emp.ID,
			Name:        emp.Name,
			Role:        emp.Role,
			WeeklyCap:   emp.WeeklyCap,
			Hours:       math.Round(hours[emp.ID]*100) / 100,
			Assignments: counts[emp.ID],
		})
	}
	return totals
}
