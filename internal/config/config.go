// Package config provides application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings shared by the terminal client and the server.
type Config struct {
	// Client side.
	ServerURL    string
	UserID       string
	UserRole     string
	PollInterval time.Duration
	ExemptRoles  []string

	// Server side.
	Port   string
	DBPath string
}

// Load reads configuration from environment variables. Call godotenv.Load
// first if a .env file should participate.
func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:    getEnv("PUNCHR_SERVER_URL", "http://localhost:8484"),
		UserID:       getEnv("PUNCHR_USER", defaultUser()),
		UserRole:     getEnv("PUNCHR_ROLE", "sales"),
		PollInterval: getEnvDuration("PUNCHR_POLL_INTERVAL", 30*time.Second),
		ExemptRoles:  splitList(getEnv("PUNCHR_REMINDER_EXEMPT_ROLES", "admin")),
		Port:         getEnv("PUNCHR_PORT", "8484"),
		DBPath:       os.Getenv("PUNCHR_DB_PATH"),
	}

	if cfg.PollInterval < time.Second {
		return nil, fmt.Errorf("PUNCHR_POLL_INTERVAL must be at least 1s, got %v", cfg.PollInterval)
	}
	return cfg, nil
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
