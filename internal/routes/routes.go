package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/templui/hrvault/internal/app"
	"github.com/templui/hrvault/internal/handler"
	"github.com/templui/hrvault/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB, app.Cfg.DBDriver)
	auth := handler.NewAuthHandler(app.AuthService)
	vault := handler.NewVaultHandler(app.VaultService, app.AuditLogger, app.Gateway, app.UploadConfig)
	share := handler.NewShareHandler(app.VaultService, app.ShareLinkService, app.AuditLogger, app.EmailService, app.Gateway)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Share link redemption (rate limited per IP)
	shareLimiter := middleware.RateLimit(middleware.NewRateLimiter(app.Cfg.ShareRateLimit))
	mux.HandleFunc("GET /vault/shared/{token}", shareLimiter(share.Redeem))

	// Auth
	if app.Cfg.IsDevelopment() {
		mux.HandleFunc("POST /auth/dev-token", auth.DevToken)
	}
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Files
	mux.HandleFunc("GET /app/vault/files", middleware.RequireAuth(vault.Search))
	mux.HandleFunc("GET /app/vault/files/{id}", middleware.RequireAuth(vault.File))
	mux.HandleFunc("GET /app/vault/files/{id}/download", middleware.RequireAuth(vault.Download))
	mux.HandleFunc("DELETE /app/vault/files/{id}", middleware.RequireAuth(vault.Delete))
	mux.HandleFunc("POST /app/vault/uploads", middleware.RequireAuth(vault.Upload))

	// Share links
	mux.HandleFunc("GET /app/vault/files/{id}/links", middleware.RequireAuth(share.List))
	mux.HandleFunc("POST /app/vault/files/{id}/links", middleware.RequireAuth(share.Create))
	mux.HandleFunc("DELETE /app/vault/files/{id}/links/{linkID}", middleware.RequireAuth(share.Revoke))
	mux.HandleFunc("POST /app/vault/files/{id}/links/{linkID}/email", middleware.RequireAuth(share.Email))
	mux.HandleFunc("GET /app/vault/files/{id}/links/{linkID}/qr", middleware.RequireAuth(share.QRCode))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.Config(app.Cfg),
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging,
		middleware.Metrics, // Last: it reads the pattern the mux sets on this request
	)

	return handler
}
