package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, DefaultCMSURL, cfg.CMS.BaseURL)
	assert.Equal(t, time.Second, cfg.Security.SlowRequestThreshold)
	assert.Equal(t, "leads.submitted", cfg.Kafka.LeadTopic)
	assert.Contains(t, cfg.AllowedOrigins(), "http://localhost:3000")
	assert.False(t, cfg.StrictLeadMapping)
}

func TestResolveCMSURL(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"internal url wins", map[string]string{"STRAPI_INTERNAL_URL": "http://strapi:1337/", "NEXT_PUBLIC_STRAPI_API_URL": "https://cms.example.com"}, "http://strapi:1337"},
		{"public url when internal empty", map[string]string{"STRAPI_INTERNAL_URL": "  ", "NEXT_PUBLIC_STRAPI_API_URL": "https://cms.example.com"}, "https://cms.example.com"},
		{"default when unset", nil, DefaultCMSURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCMSURL(envFrom(tt.env)))
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"APP_ENV":                "Production",
		"PUBLIC_BASE_URL":        "https://www.example-assurances.ci/",
		"TRUSTED_PROXIES":        "10.0.0.0/8, 192.168.1.10",
		"SLOW_REQUEST_THRESHOLD": "750ms",
		"CMS_TIMEOUT":            "3s",
		"STRICT_LEAD_MAPPING":    "true",
		"ADMIN_JWT_SECRET":       "s3cret",
		"FRONTEND_URL":           "http://web:3000/",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://www.example-assurances.ci"}, cfg.AllowedOrigins())
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.10/32"),
	}, cfg.Security.TrustedProxies)
	assert.Equal(t, 750*time.Millisecond, cfg.Security.SlowRequestThreshold)
	assert.Equal(t, 3*time.Second, cfg.CMS.Timeout)
	assert.True(t, cfg.StrictLeadMapping)
	assert.Equal(t, "s3cret", cfg.Security.AdminJWTSecret)
	assert.Equal(t, "http://web:3000", cfg.FrontendURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"bad proxy":    {"TRUSTED_PROXIES": "not-a-cidr"},
		"bad duration": {"CMS_TIMEOUT": "soon"},
		"zero window":  {"SLOW_REQUEST_THRESHOLD": "0s"},
		"bad bool":     {"STRICT_LEAD_MAPPING": "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := load(envFrom(env))
			assert.Error(t, err)
		})
	}
}

func TestYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leadgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rate_limits:
  send-devis:
    limit: 3
    window: 10m
cors_origins:
  staging:
    - https://staging.example.com
`), 0o600))

	t.Run("overlay sets limits and origins", func(t *testing.T) {
		cfg, err := load(envFrom(map[string]string{"LEADGATE_CONFIG_FILE": path, "APP_ENV": "staging"}))
		require.NoError(t, err)
		assert.Equal(t, RateLimit{Limit: 3, Window: 10 * time.Minute}, cfg.RateLimits["send-devis"])
		assert.Equal(t, []string{"https://staging.example.com"}, cfg.AllowedOrigins())
	})

	t.Run("missing file is ignored", func(t *testing.T) {
		_, err := load(envFrom(map[string]string{"LEADGATE_CONFIG_FILE": filepath.Join(dir, "absent.yaml")}))
		assert.NoError(t, err)
	})

	t.Run("invalid limit is rejected", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("rate_limits:\n  blogs:\n    limit: 0\n    window: 1m\n"), 0o600))
		_, err := load(envFrom(map[string]string{"LEADGATE_CONFIG_FILE": bad}))
		assert.Error(t, err)
	})
}
