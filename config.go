package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// config is read once at startup from the environment (and .env in dev).
type config struct {
	Port         string
	LogLevel     string
	DBPath       string
	CatalogFile  string
	ClientOrigin string
	JWTSecret    string
	JWTDays      int
	CookieName   string
	Production   bool
	Durations    []int
	SessionIdle  time.Duration
	DailySalt    string
}

func loadConfig() config {
	return config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBPath:       getEnv("DB_PATH", "./data/quiz.db"),
		CatalogFile:  os.Getenv("CATALOG_FILE"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTDays:      envInt("JWT_EXPIRES_DAYS", 14),
		CookieName:   getEnv("COOKIE_NAME", "quiz_token"),
		Production:   os.Getenv("NODE_ENV") == "production",
		Durations:    envInts("QUIZ_DURATIONS", []int{60, 150, 300}),
		SessionIdle:  envDuration("SESSION_IDLE", 30*time.Minute),
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

// envInts parses a comma-separated list of positive seconds.
func envInts(k string, def []int) []int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return def
		}
		out = append(out, n)
	}
	return out
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
