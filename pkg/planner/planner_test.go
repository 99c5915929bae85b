package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staff-scheduler-go/pkg/normalize"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
)

type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Propose(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testInput() scheduler.Input {
	return scheduler.Input{
		Shifts: []normalize.Record{
			{"id": "s1", "roleNeeded": "CNA", "date": "2025-03-10", "start": "7:00", "end": "19:00"},
		},
		Employees: []normalize.Record{
			{"id": "e1", "name": "Alice", "role": "CNA", "weeklyCap": 40},
		},
		Availability: []normalize.Record{
			{"employeeId": "e1", "date": "2025-03-10", "start": "0:00", "end": "23:59"},
		},
	}
}

func TestPlan_NoProviderUsesGreedy(t *testing.T) {
	result := New(nil, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceGreedy, result.Source)
	require.Len(t, result.Assignments, 1)
	require.NotNil(t, result.Assignments[0].EmployeeID)
	assert.Equal(t, "e1", *result.Assignments[0].EmployeeID)
}

func TestPlan_ValidProposalAccepted(t *testing.T) {
	provider := &stubProvider{response: `[{"shiftId": "s1", "employeeId": "e1"}]`}

	result := New(provider, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceLLM, result.Source)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "e1", *result.Assignments[0].EmployeeID)

	require.Len(t, result.TotalsByEmployee, 1)
	assert.Equal(t, 12.0, result.TotalsByEmployee[0].Hours)
	assert.Equal(t, 1, result.TotalsByEmployee[0].Assignments)

	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "s1")
	assert.Contains(t, provider.prompts[0], "Alice")
}

func TestPlan_FencedJSONAccepted(t *testing.T) {
	provider := &stubProvider{response: "```json\n[{\"shiftId\": \"s1\", \"employeeId\": \"e1\"}]\n```"}

	result := New(provider, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceLLM, result.Source)
}

func TestPlan_InvalidProposalFallsBack(t *testing.T) {
	// Proposes an employee that does not exist.
	provider := &stubProvider{response: `[{"shiftId": "s1", "employeeId": "ghost"}]`}

	result := New(provider, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceGreedy, result.Source)
	require.NotNil(t, result.Assignments[0].EmployeeID)
	assert.Equal(t, "e1", *result.Assignments[0].EmployeeID)
}

func TestPlan_ProviderErrorFallsBack(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}

	result := New(provider, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceGreedy, result.Source)
}

func TestPlan_GarbageResponseFallsBack(t *testing.T) {
	provider := &stubProvider{response: "I think Alice should work the morning shift."}

	result := New(provider, quietLog()).Plan(context.Background(), testInput())

	assert.Equal(t, SourceGreedy, result.Source)
}
