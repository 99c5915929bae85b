// Package config collects the service configuration from the
// environment, loading a .env file first when one is present.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port            string
	GinMode         string
	DatabaseURL     string
	DataPath        string
	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string
	WebhookURL      string
	WebhookSecret   string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
}

// Load reads .env (searching the working directory and two parents)
// and then the environment.
func Load() *Config {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	return &Config{
		Port:            getEnv("PORT", "8000"),
		GinMode:         getEnv("GIN_MODE", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DataPath:        getEnv("DATA_PATH", "scheduler.db"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		APIMasterSecret: getEnv("API_MASTER_SECRET", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		WebhookURL:      getEnv("WEBHOOK_URL", ""),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
