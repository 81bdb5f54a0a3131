package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/foodgram")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("MEDIA_DIR", "")

	cfg := loadConfig()
	assert.Equal(t, "postgres://localhost/foodgram", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./media", cfg.MediaDir)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/foodgram")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("MEDIA_DIR", "/var/media")

	cfg := loadConfig()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/var/media", cfg.MediaDir)
}
