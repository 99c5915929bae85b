package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/config"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/handlers"
	"github.com/arnavshah/staff-scheduler-go/pkg/planner"
	"github.com/arnavshah/staff-scheduler-go/pkg/webhook"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Init(cfg)
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}
	if err := database.EnsureAdminExists(db, cfg); err != nil {
		log.WithError(err).Fatal("could not ensure admin account")
	}

	h := &handlers.Handler{
		DB:        db,
		Auth:      auth.New(cfg.JWTSecret, cfg.APIMasterSecret),
		Log:       log,
		Delivered: webhook.NewDeliverySet(),
	}

	if cfg.WebhookURL != "" {
		h.Webhook = webhook.NewSender(cfg.WebhookURL, cfg.WebhookSecret, log)
		log.WithField("url", cfg.WebhookURL).Info("webhook forwarding enabled")
	}

	if provider := planner.NewOpenAIProvider(planner.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, log); provider != nil {
		h.Planner = planner.New(provider, log)
		log.WithField("model", cfg.OpenAIModel).Info("AI planner enabled")
	} else {
		h.Planner = planner.New(nil, log)
	}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Staff Scheduler API",
			"version": "1.0.0",
		})
	})

	r.POST("/admin/login", h.Login)
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.GET("/deliveries", h.ListDeliveries)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.Schedule)
		api.POST("/validate", h.ValidateAssignments)
		api.POST("/plan", h.Plan)
		api.GET("/usage", h.GetMyUsage)
	}

	log.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("could not run server")
	}
}
