package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leadgate/internal/ratelimit/models"
)

func TestLimitFor(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, Limit{RequestsPerWindow: 5, Window: 15 * time.Minute}, cfg.LimitFor(models.EndpointSendDevis))
	assert.Equal(t, Limit{RequestsPerWindow: 10, Window: 10 * time.Minute}, cfg.LimitFor(models.EndpointUploadFile))
	assert.Equal(t, cfg.Fallback, cfg.LimitFor(models.Endpoint("unknown")))
}

func TestWithOverrides(t *testing.T) {
	base := DefaultConfig()
	cfg := base.WithOverrides(map[string]Limit{
		"send-devis": {RequestsPerWindow: 2, Window: time.Minute},
		"newsletter": {RequestsPerWindow: 3, Window: time.Hour},
		"blogs":      {RequestsPerWindow: 0, Window: time.Minute},
	})

	assert.Equal(t, 2, cfg.LimitFor(models.EndpointSendDevis).RequestsPerWindow)
	assert.Equal(t, 3, cfg.LimitFor(models.Endpoint("newsletter")).RequestsPerWindow)
	assert.Equal(t, 60, cfg.LimitFor(models.EndpointBlogs).RequestsPerWindow)
	assert.Equal(t, 5, base.LimitFor(models.EndpointSendDevis).RequestsPerWindow, "base config must not change")
}
