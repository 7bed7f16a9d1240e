package middleware

import (
	"net/http"

	"github.com/templui/hrvault/internal/config"
	"github.com/templui/hrvault/internal/ctxkeys"
)

// Config middleware adds the sanitized app configuration to the request context.
// Secrets such as JWTSecret and the S3 keys are excluded. It also resolves
// the client IP once, honouring forwarding headers from trusted proxies only.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	sanitized := cfg.Sanitized()
	ips := NewClientIPResolver(cfg.TrustedProxies)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), sanitized)
			ctx = ctxkeys.WithClientIP(ctx, ips.ClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
