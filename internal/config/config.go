// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string

	// KafkaBrokers empty means events go to the structured log instead.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment. DATABASE_URL is required;
// everything else has a sensible default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		KafkaTopic:     os.Getenv("KAFKA_TOPIC"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "bakehouse.events"
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if t := strings.TrimSpace(b); t != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, t)
			}
		}
	}
	return cfg, nil
}
