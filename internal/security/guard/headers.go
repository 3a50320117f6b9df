package guard

import "net/http"

// securityHeaders are attached to every guarded response, blocked ones included.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"X-XSS-Protection":        "1; mode=block",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Permissions-Policy":      "camera=(), microphone=(), geolocation=(), payment=()",
	"X-DNS-Prefetch-Control":  "on",
	"Content-Security-Policy": "frame-ancestors 'none'; base-uri 'self'; object-src 'none'",
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SetSecurityHeaders writes the fixed header set. HSTS is only sent in
// production where TLS terminates in front of the service.
func SetSecurityHeaders(h http.Header, production bool) {
	for k, v := range securityHeaders {
		h.Set(k, v)
	}
	if production {
		h.Set("Strict-Transport-Security", hstsValue)
	}
}
