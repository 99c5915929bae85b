// Package handlers wires the scheduling core to the HTTP surface.
// Shape problems (bad JSON, missing lists) are 400s; value problems
// inside well-shaped records become issues or validation errors in a
// 200 response, matching the core's never-raise contract.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/normalize"
	"github.com/arnavshah/staff-scheduler-go/pkg/planner"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
	"github.com/arnavshah/staff-scheduler-go/pkg/validate"
	"github.com/arnavshah/staff-scheduler-go/pkg/webhook"
)

// Handler carries the route dependencies. Webhook and Planner are
// optional; a nil Webhook disables forwarding and a Planner without a
// provider always plans greedily.
type Handler struct {
	DB        *gorm.DB
	Auth      *auth.Service
	Log       *logrus.Logger
	Webhook   *webhook.Sender
	Delivered *webhook.DeliverySet
	Planner   *planner.Planner
}

// ScheduleRequest is the wire shape of a scheduling run. Shift,
// employee, and availability records stay loosely shaped here; the
// normalizer gives them canonical form.
type ScheduleRequest struct {
	WeekID              string             `json:"weekId"`
	StartDate           string             `json:"startDate"`
	EndDate             string             `json:"endDate"`
	Shifts              []normalize.Record `json:"shifts" binding:"required"`
	Employees           []normalize.Record `json:"employees" binding:"required"`
	Availability        []normalize.Record `json:"availability"`
	ExistingAssignments any                `json:"existingAssignments"`
}

// ValidateRequest is the wire shape of a re-check.
type ValidateRequest struct {
	Assignments  []models.Assignment `json:"assignments" binding:"required"`
	Shifts       []normalize.Record  `json:"shifts" binding:"required"`
	Employees    []normalize.Record  `json:"employees" binding:"required"`
	Availability []normalize.Record  `json:"availability"`
}

func (r *ScheduleRequest) input() scheduler.Input {
	return scheduler.Input{
		Shifts:       r.Shifts,
		Employees:    r.Employees,
		Availability: r.Availability,
		Existing:     r.ExistingAssignments,
	}
}

// AuthMiddleware verifies the admin JWT.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC-signed client key and loads its
// usage record.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		name, err := h.Auth.VerifyAPIKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key signature"})
			c.Abort()
			return
		}

		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      name,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	return token
}

// Schedule runs one greedy scheduling pass and optionally forwards the
// result to the configured webhook.
func (h *Handler) Schedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := scheduler.Run(req.input())

	h.recordUsage(c, len(req.Shifts), len(req.Employees))
	h.forward(c, req, result)

	c.JSON(http.StatusOK, result)
}

// ValidateAssignments re-checks an externally supplied assignment set.
func (h *Handler) ValidateAssignments(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := validate.Assignments(req.Assignments, req.Shifts, req.Employees, req.Availability)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

// Plan runs the AI-assisted planner, which falls back to the greedy
// scheduler when no provider is configured or the proposal is invalid.
func (h *Handler) Plan(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.Planner.Plan(c.Request.Context(), req.input())

	h.recordUsage(c, len(req.Shifts), len(req.Employees))
	c.JSON(http.StatusOK, result)
}

// forward posts the schedule to the webhook endpoint and logs the
// delivery outcome, both to the logger and the delivery table. Webhook
// failures never fail the scheduling request.
func (h *Handler) forward(c *gin.Context, req ScheduleRequest, result models.ScheduleResult) {
	if h.Webhook == nil {
		return
	}

	payload := webhook.Payload{
		WeekID:           req.WeekID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Assignments:      result.Assignments,
		TotalsByEmployee: result.TotalsByEmployee,
		Issues:           result.Issues,
	}

	deliveryID, attempts, err := h.Webhook.Deliver(c.Request.Context(), payload, h.Delivered)
	if deliveryID == "" {
		return // skipped as a duplicate
	}

	delivery := database.WebhookDelivery{
		DeliveryID: deliveryID,
		WeekID:     req.WeekID,
		URL:        h.Webhook.URL,
		Status:     "delivered",
		Attempts:   attempts,
	}
	if err != nil {
		delivery.Status = "failed"
		delivery.LastError = err.Error()
		h.Log.WithError(err).WithField("week_id", req.WeekID).Error("webhook delivery failed")
	}
	if h.DB != nil {
		h.DB.Create(&delivery)
	}
}

// recordUsage upserts the per-key daily counters in one query.
func (h *Handler) recordUsage(c *gin.Context, shiftCount, employeeCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":   gorm.Expr("request_count + ?", 1),
			"total_shifts":    gorm.Expr("total_shifts + ?", shiftCount),
			"total_employees": gorm.Expr("total_employees + ?", employeeCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:          apiKey.ID,
		Date:           time.Now().Format("2006-01-02"),
		RequestCount:   1,
		TotalShifts:    shiftCount,
		TotalEmployees: employeeCount,
	})
}
