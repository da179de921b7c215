package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PUBLIC_APP_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("RENDER_CACHE_MEMORY_MB", "")
	t.Setenv("CERT_RENDER_CONCURRENCY", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Certificate.PublicAppURL)
	assert.Equal(t, "ar", cfg.Certificate.DefaultLanguage)
	assert.False(t, cfg.Certificate.StrictFields)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 50, cfg.Batch.Size)
	assert.Equal(t, 64, cfg.Redis.MemoryMB)
	assert.Equal(t, 4, cfg.Certificate.RenderConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUBLIC_APP_URL", "https://academy.example.com/")
	t.Setenv("TEMPLATE_STRICT_FIELDS", "true")
	t.Setenv("CERT_INSTRUCTOR_FALLBACK", "Dr. Sami")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()

	assert.Equal(t, "https://academy.example.com", cfg.Certificate.PublicAppURL)
	assert.True(t, cfg.Certificate.StrictFields)
	assert.Equal(t, "Dr. Sami", cfg.Certificate.InstructorFallback)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.App.AllowedOrigins)
}
