package guard

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"leadgate/internal/security/events/models"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = 86400
)

// IsPreflight reports a CORS preflight: OPTIONS carrying Origin and
// Access-Control-Request-Method.
func IsPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

func originAllowed(allowed []string, origin string) bool {
	origin = strings.TrimSuffix(origin, "/")
	return slices.Contains(allowed, origin)
}

// handlePreflight answers a preflight without reaching downstream handlers.
// Unknown origins get 403 and a CORS_ORIGIN_REJECTED event.
func (g *Guard) handlePreflight(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	h := w.Header()
	h.Add("Vary", "Origin")

	if !originAllowed(g.cfg.AllowedOrigins, origin) {
		g.events.Log(r.Context(), models.TypeCORSOriginRejected, map[string]any{
			"origin": origin,
		}, r)
		g.metrics.IncDecision(DecisionCORSRejected)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
	g.metrics.IncDecision(DecisionPreflight)
	w.WriteHeader(http.StatusNoContent)
}

// CORS serves preflights and decorates simple requests from allowed origins.
// The router mounts it on /api, which the page guard bypasses.
func (g *Guard) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPreflight(r) {
			g.handlePreflight(w, r)
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Add("Vary", "Origin")
			if originAllowed(g.cfg.AllowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		next.ServeHTTP(w, r)
	})
}
