package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/planner"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	h := &Handler{Log: log, Planner: planner.New(nil, log)}

	r := gin.New()
	r.POST("/api/schedule", h.Schedule)
	r.POST("/api/validate", h.ValidateAssignments)
	r.POST("/api/plan", h.Plan)
	return r
}

func post(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func scheduleBody() map[string]any {
	return map[string]any{
		"weekId": "2025-W11",
		"shifts": []map[string]any{
			{"id": "s1", "roleNeeded": "CNA", "date": "2025-03-10", "start": "7:00", "end": "19:00"},
		},
		"employees": []map[string]any{
			{"id": "e1", "name": "Alice", "role": "CNA", "weeklyCap": 40},
		},
		"availability": []map[string]any{
			{"employeeId": "e1", "date": "2025-03-10", "start": "0:00", "end": "23:59"},
		},
	}
}

func TestSchedule(t *testing.T) {
	w := post(t, testRouter(), "/api/schedule", scheduleBody())

	require.Equal(t, http.StatusOK, w.Code)

	var result models.ScheduleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Assignments, 1)
	require.NotNil(t, result.Assignments[0].EmployeeID)
	assert.Equal(t, "e1", *result.Assignments[0].EmployeeID)
	require.Len(t, result.TotalsByEmployee, 1)
	assert.Equal(t, 12.0, result.TotalsByEmployee[0].Hours)
}

func TestSchedule_MissingListsIsShapeError(t *testing.T) {
	w := post(t, testRouter(), "/api/schedule", map[string]any{"weekId": "2025-W11"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedule_MalformedJSONIsShapeError(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedule_BadValuesStillSucceed(t *testing.T) {
	// Malformed values (unparsable times) are issues, not errors.
	body := scheduleBody()
	body["shifts"] = []map[string]any{{"id": "s1", "start": "bad", "end": "worse"}}

	w := post(t, testRouter(), "/api/schedule", body)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.ScheduleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Assignments, 1)
	assert.Nil(t, result.Assignments[0].EmployeeID)
	assert.Equal(t, "missing start or end time", result.Assignments[0].Reason)
}

func TestValidateAssignments(t *testing.T) {
	body := scheduleBody()
	body["assignments"] = []map[string]any{
		{"shiftId": "s1", "employeeId": "ghost"},
	}

	w := post(t, testRouter(), "/api/validate", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Valid  bool                     `json:"valid"`
		Errors []models.ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, models.ErrMissingEmployee, resp.Errors[0].Type)
}

func TestValidateAssignments_CleanSet(t *testing.T) {
	body := scheduleBody()
	body["assignments"] = []map[string]any{
		{"shiftId": "s1", "employeeId": "e1"},
	}

	w := post(t, testRouter(), "/api/validate", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Valid  bool                     `json:"valid"`
		Errors []models.ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)
}

func TestPlan_GreedyFallbackWithoutProvider(t *testing.T) {
	w := post(t, testRouter(), "/api/plan", scheduleBody())

	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Source string `json:"planner"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, planner.SourceGreedy, result.Source)
}
