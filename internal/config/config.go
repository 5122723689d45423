/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	DBBackend DatabaseBackend
	DBDSN     string

	// Default simulation parameters, overridable per workload file or
	// API request.
	Timeslots         int
	SlotLengthSeconds float64

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("SKYSCHED_ENV", "development"),
		HTTPBind:    getEnv("SKYSCHED_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("SKYSCHED_HTTP_PORT", 8080),
		MetricsBind: getEnv("SKYSCHED_METRICS_BIND", "127.0.0.1:9000"),

		DBBackend: DatabaseBackend(getEnv("SKYSCHED_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("SKYSCHED_DB_DSN", "skysched.db"),

		Timeslots:         getEnvInt("SKYSCHED_TIMESLOTS", 3),
		SlotLengthSeconds: getEnvFloat("SKYSCHED_TIMESLOT_LENGTH_SECONDS", 600),

		TracingEnabled:    getEnvBool("SKYSCHED_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("SKYSCHED_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("SKYSCHED_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("SKYSCHED_DB_DSN must be provided")
	}

	if cfg.Timeslots <= 0 {
		return nil, fmt.Errorf("SKYSCHED_TIMESLOTS must be positive, got %d", cfg.Timeslots)
	}

	if cfg.SlotLengthSeconds <= 0 {
		return nil, fmt.Errorf("SKYSCHED_TIMESLOT_LENGTH_SECONDS must be positive, got %v", cfg.SlotLengthSeconds)
	}

	return cfg, nil
}

// SlotLength returns the configured slot length as a duration.
func (c *Config) SlotLength() time.Duration {
	return time.Duration(c.SlotLengthSeconds * float64(time.Second))
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}
