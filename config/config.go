package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"otadmin/otcalc"
)

type Config struct {
	DatabaseURL       string
	DBLogLevel        string
	JWTSecret         string
	JWTExpiration     time.Duration
	ServerPort        string
	CORSOrigins       []string
	FacilityLocation  *time.Location
	RulesFile         string
	Rules             otcalc.Policy
	LogLevel          slog.Level
	SeedAdminUsername string
	SeedAdminPassword string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/overtime"),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		JWTSecret:         getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RulesFile:         getEnv("OT_RULES_FILE", ""),
		SeedAdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}

	exp, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRATION: %w", err)
	}
	cfg.JWTExpiration = exp

	loc, err := time.LoadLocation(getEnv("FACILITY_TZ", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("FACILITY_TZ: %w", err)
	}
	cfg.FacilityLocation = loc

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg.Rules, err = LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
