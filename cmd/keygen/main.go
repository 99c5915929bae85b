package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/staff-scheduler-go/pkg/auth"
	"github.com/arnavshah/staff-scheduler-go/pkg/config"
)

func main() {
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <client name>")
		os.Exit(1)
	}
	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET is not set")
		os.Exit(1)
	}

	name := os.Args[1]
	key := auth.New(cfg.JWTSecret, cfg.APIMasterSecret).GenerateAPIKey(name)
	fmt.Printf("Generated key for %s:\n%s\n", name, key)
}
