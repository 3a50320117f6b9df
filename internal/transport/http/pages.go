package httptransport

import (
	"fmt"
	"log/slog"
	"net/http"
	stdhttputil "net/http/httputil"
	"net/url"

	"leadgate/pkg/requestcontext"
)

// NewPageProxy forwards guarded page requests to the frontend server.
func NewPageProxy(target string, logger *slog.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse frontend url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("frontend url must be absolute http(s): %q", target)
	}

	proxy := &stdhttputil.ReverseProxy{
		Rewrite: func(pr *stdhttputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Header.Set("X-Request-ID", requestcontext.RequestID(pr.In.Context()))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "frontend unavailable",
				"error", err,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(r.Context()),
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return proxy, nil
}
