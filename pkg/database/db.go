// Package database owns the persistence for everything outside the
// scheduling core: API keys, usage counters, the admin account, and
// the outbound webhook delivery log.
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/config"
)

// APIKey is an issued scheduler client key.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage is a per-key, per-day usage counter.
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalShifts    int    `gorm:"default:0" json:"total_shifts"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
}

// MasterUser is an admin account.
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// WebhookDelivery records one outbound schedule forward.
type WebhookDelivery struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeliveryID string    `gorm:"uniqueIndex;not null" json:"delivery_id"`
	WeekID     string    `gorm:"index" json:"week_id"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Init opens the configured database (postgres when DATABASE_URL is
// set, sqlite otherwise) and migrates the schema.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{PrepareStmt: false})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &WebhookDelivery{}); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureAdminExists creates the initial admin account from the config
// when no admin exists yet.
func EnsureAdminExists(db *gorm.DB, cfg *config.Config) error {
	var count int64
	db.Model(&MasterUser{}).Count(&count)
	if count > 0 {
		return nil
	}

	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return db.Create(&MasterUser{Username: cfg.AdminUsername, PasswordHash: hash}).Error
}
