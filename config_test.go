package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "QUIZ_DURATIONS", "SESSION_IDLE", "JWT_EXPIRES_DAYS", "NODE_ENV"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, []int{60, 150, 300}, cfg.Durations)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, 14, cfg.JWTDays)
	assert.False(t, cfg.Production)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("QUIZ_DURATIONS", "30, 90")
	t.Setenv("SESSION_IDLE", "5m")
	t.Setenv("NODE_ENV", "production")
	cfg := loadConfig()
	assert.Equal(t, []int{30, 90}, cfg.Durations)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdle)
	assert.True(t, cfg.Production)

	t.Setenv("QUIZ_DURATIONS", "30,zero")
	assert.Equal(t, []int{60, 150, 300}, loadConfig().Durations)
}
