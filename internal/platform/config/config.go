package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	// DefaultCMSURL is used when neither STRAPI_INTERNAL_URL nor
	// NEXT_PUBLIC_STRAPI_API_URL is set.
	DefaultCMSURL = "http://localhost:1337"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	PublicBaseURL   string
	ShutdownTimeout time.Duration

	// FrontendURL is the page server the guard fronts. Empty means page
	// routes answer 404 after passing the guard.
	FrontendURL string

	CMS      CMSConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Security SecurityConfig

	// RateLimits overrides per-endpoint limits, keyed by endpoint name
	// (send-devis, blogs, ...). Only set from the YAML overlay.
	RateLimits map[string]RateLimit

	// StrictLeadMapping rejects form labels missing from the mapping tables
	// instead of passing them through.
	StrictLeadMapping bool
}

// CMSConfig points at the headless CMS.
type CMSConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// RedisConfig enables the shared rate-limit store when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig enables the Postgres security-event sink when URL is set.
type DatabaseConfig struct {
	URL string
}

// KafkaConfig enables lead notifications over Kafka when Brokers is set.
type KafkaConfig struct {
	Brokers   string
	LeadTopic string
}

// SecurityConfig groups the guard, event sink and admin API settings.
type SecurityConfig struct {
	EventsFile           string
	AdminJWTSecret       string
	TrustedProxies       []netip.Prefix
	SlowRequestThreshold time.Duration
	// CORSOrigins lists allowed preflight origins per environment.
	CORSOrigins map[string][]string
}

// RateLimit is a fixed-window quota.
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// overlay is the YAML file shape. Only the keys present override defaults.
type overlay struct {
	RateLimits map[string]RateLimit `yaml:"rate_limits"`
	CORS       map[string][]string  `yaml:"cors_origins"`
}

// Default returns the configuration used when nothing is set.
func Default() Server {
	return Server{
		Addr:            ":8080",
		Environment:     EnvDevelopment,
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
		CMS: CMSConfig{
			BaseURL: DefaultCMSURL,
			Timeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Kafka: KafkaConfig{
			LeadTopic: "leads.submitted",
		},
		Security: SecurityConfig{
			SlowRequestThreshold: time.Second,
			CORSOrigins: map[string][]string{
				EnvDevelopment: {"http://localhost:3000", "http://127.0.0.1:3000"},
				EnvStaging:     {},
				EnvProduction:  {},
			},
		},
		RateLimits: map[string]RateLimit{},
	}
}

// FromEnv builds a Server config from the optional YAML overlay
// (LEADGATE_CONFIG_FILE) and then environment variables, which win.
func FromEnv() (Server, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Server, error) {
	cfg := Default()

	if path := getenv("LEADGATE_CONFIG_FILE"); path != "" {
		if err := applyOverlay(path, &cfg); err != nil {
			return Server{}, err
		}
	}

	if v := getenv("LEADGATE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("APP_ENV"); v != "" {
		cfg.Environment = strings.ToLower(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	cfg.PublicBaseURL = strings.TrimRight(getenv("PUBLIC_BASE_URL"), "/")
	cfg.FrontendURL = strings.TrimRight(getenv("FRONTEND_URL"), "/")

	cfg.CMS.BaseURL = ResolveCMSURL(getenv)
	cfg.CMS.APIToken = getenv("STRAPI_API_TOKEN")
	if err := durationEnv(getenv, "CMS_TIMEOUT", &cfg.CMS.Timeout); err != nil {
		return Server{}, err
	}

	cfg.Redis.URL = getenv("REDIS_URL")
	cfg.Database.URL = getenv("DATABASE_URL")
	cfg.Kafka.Brokers = getenv("KAFKA_BROKERS")
	if v := getenv("LEAD_NOTIFICATION_TOPIC"); v != "" {
		cfg.Kafka.LeadTopic = v
	}

	cfg.Security.EventsFile = getenv("SECURITY_EVENTS_FILE")
	cfg.Security.AdminJWTSecret = getenv("ADMIN_JWT_SECRET")
	if err := durationEnv(getenv, "SLOW_REQUEST_THRESHOLD", &cfg.Security.SlowRequestThreshold); err != nil {
		return Server{}, err
	}
	proxies, err := ParseTrustedProxies(getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Server{}, err
	}
	cfg.Security.TrustedProxies = proxies

	if v := getenv("STRICT_LEAD_MAPPING"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return Server{}, fmt.Errorf("parse STRICT_LEAD_MAPPING: %w", err)
		}
		cfg.StrictLeadMapping = strict
	}

	if cfg.PublicBaseURL != "" {
		for env := range cfg.Security.CORSOrigins {
			cfg.Security.CORSOrigins[env] = appendUnique(cfg.Security.CORSOrigins[env], cfg.PublicBaseURL)
		}
	}

	return cfg, nil
}

// ResolveCMSURL applies first-non-empty precedence:
// STRAPI_INTERNAL_URL, then NEXT_PUBLIC_STRAPI_API_URL, then DefaultCMSURL.
func ResolveCMSURL(getenv func(string) string) string {
	for _, key := range []string{"STRAPI_INTERNAL_URL", "NEXT_PUBLIC_STRAPI_API_URL"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return DefaultCMSURL
}

// ParseTrustedProxies parses a comma-separated CIDR list. Bare addresses are
// accepted as single-host prefixes.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, fmt.Errorf("parse TRUSTED_PROXIES entry %q: %w", part, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("parse TRUSTED_PROXIES entry %q: %w", part, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// AllowedOrigins returns the preflight allow-list for the active environment.
func (s Server) AllowedOrigins() []string {
	return s.Security.CORSOrigins[s.Environment]
}

// IsProduction reports whether the server runs in production.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

func applyOverlay(path string, cfg *Server) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	for endpoint, rl := range o.RateLimits {
		if rl.Limit <= 0 || rl.Window <= 0 {
			return fmt.Errorf("config file %s: rate limit %q needs a positive limit and window", path, endpoint)
		}
		cfg.RateLimits[endpoint] = rl
	}
	for env, origins := range o.CORS {
		cfg.Security.CORSOrigins[strings.ToLower(env)] = origins
	}
	return nil
}

func durationEnv(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive", key)
	}
	*dst = d
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
