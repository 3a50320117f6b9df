package config

import (
	"time"

	"leadgate/internal/ratelimit/models"
)

// Limit is a fixed-window quota.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Config holds per-endpoint limits and the fallback for unknown endpoints.
type Config struct {
	Endpoints map[models.Endpoint]Limit
	Fallback  Limit
}

// DefaultConfig returns the per-endpoint defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoints: map[models.Endpoint]Limit{
			models.EndpointSendDevis:      {RequestsPerWindow: 5, Window: 15 * time.Minute},
			models.EndpointBlogs:          {RequestsPerWindow: 60, Window: time.Minute},
			models.EndpointBlogDetail:     {RequestsPerWindow: 60, Window: time.Minute},
			models.EndpointBlogCategories: {RequestsPerWindow: 30, Window: time.Minute},
			models.EndpointUploadFile:     {RequestsPerWindow: 10, Window: 10 * time.Minute},
			models.EndpointServeFile:      {RequestsPerWindow: 120, Window: time.Minute},
			models.EndpointMedia:          {RequestsPerWindow: 120, Window: time.Minute},
		},
		Fallback: Limit{RequestsPerWindow: 60, Window: time.Minute},
	}
}

// WithOverrides returns a copy with the given endpoints replaced. Entries
// with a non-positive limit or window are ignored.
func (c *Config) WithOverrides(overrides map[string]Limit) *Config {
	out := &Config{
		Endpoints: make(map[models.Endpoint]Limit, len(c.Endpoints)+len(overrides)),
		Fallback:  c.Fallback,
	}
	for k, v := range c.Endpoints {
		out.Endpoints[k] = v
	}
	for name, l := range overrides {
		if l.RequestsPerWindow <= 0 || l.Window <= 0 {
			continue
		}
		out.Endpoints[models.Endpoint(name)] = l
	}
	return out
}

// LimitFor returns the quota for endpoint, or the fallback.
func (c *Config) LimitFor(endpoint models.Endpoint) Limit {
	if l, ok := c.Endpoints[endpoint]; ok {
		return l
	}
	return c.Fallback
}
