package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret   string        // HS256 secret, used when no JWKS URL is configured
	JWTExpiry   time.Duration // Lifetime of tokens minted for local development
	JWKSURL     string        // Optional: identity provider key set (RS256/ES256)
	JWTIssuer   string        // Optional: expected "iss" claim
	JWKSRefresh time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region               string
	S3Bucket               string
	S3AccessKey            string
	S3SecretKey            string
	S3Endpoint             string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiryPrivate time.Duration // Expiry for vault download URLs - default: 1 hour

	// Vault
	VaultOrigin        string   // Origin used to build public share URLs
	VaultMaxUploadSize int64    // Bytes, inclusive
	VaultAcceptedTypes []string // Declared media types accepted for upload
	VaultFileCacheSize int
	VaultFileCacheTTL  time.Duration

	// Audit log batching
	AuditEnabled       bool
	AuditBatchSize     int
	AuditFlushInterval time.Duration

	// Public share redemption rate limit (requests per minute per IP)
	ShareRateLimit int

	// Reverse proxies whose forwarding headers are believed. Empty means
	// the socket peer is always the client.
	TrustedProxies []netip.Prefix
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appURL := envRequired("APP_URL") // Required: base URL for share links

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "HR Vault"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  appURL,
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/vault.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_time_format=sqlite"),

		// Security
		JWTSecret:   envString("JWT_SECRET", ""),
		JWTExpiry:   envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		JWKSURL:     envString("JWKS_URL", ""),
		JWTIssuer:   envString("JWT_ISSUER", ""),
		JWKSRefresh: envDuration("JWKS_REFRESH_INTERVAL", 15*time.Minute),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		// Storage
		S3Region:               envRequired("S3_REGION"),
		S3Bucket:               envRequired("S3_BUCKET"),
		S3AccessKey:            envRequired("S3_ACCESS_KEY"),
		S3SecretKey:            envRequired("S3_SECRET_KEY"),
		S3Endpoint:             envString("S3_ENDPOINT", ""),                          // Optional: for non-AWS providers
		S3PresignExpiryPrivate: envDuration("S3_PRESIGN_EXPIRY_PRIVATE", 1*time.Hour), // Default: 1 hour for vault files

		// Vault
		VaultOrigin:        envString("VAULT_ORIGIN", appURL),
		VaultMaxUploadSize: int64(envInt("VAULT_MAX_UPLOAD_SIZE", 20<<20)), // 20MB
		VaultAcceptedTypes: envList("VAULT_ACCEPTED_TYPES", []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"image/jpeg",
			"image/png",
			"text/plain",
		}),
		VaultFileCacheSize: envInt("VAULT_FILE_CACHE_SIZE", 1024),
		VaultFileCacheTTL:  envDuration("VAULT_FILE_CACHE_TTL", 5*time.Minute),

		// Audit
		AuditEnabled:       envBool("AUDIT_ENABLED", true),
		AuditBatchSize:     envInt("AUDIT_BATCH_SIZE", 10),
		AuditFlushInterval: envDuration("AUDIT_FLUSH_INTERVAL", 30*time.Second),

		ShareRateLimit: envInt("SHARE_RATE_LIMIT", 30),
		TrustedProxies: envPrefixes("TRUSTED_PROXIES"),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		slog.Error("either JWT_SECRET or JWKS_URL must be set")
		os.Exit(1)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to fall back to log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping blank items.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envPrefixes reads a list of CIDRs or bare addresses. A bare address
// becomes a single-host prefix.
func envPrefixes(key string) []netip.Prefix {
	prefixes, err := ParsePrefixes(envList(key, nil))
	if err != nil {
		slog.Error("config invalid prefix list", "key", key, "error", err)
		os.Exit(1)
	}
	return prefixes
}

// ParsePrefixes parses TRUSTED_PROXIES style entries.
func ParsePrefixes(items []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range items {
		if p, err := netip.ParsePrefix(item); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("%q is neither a CIDR nor an IP address", item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		EmailFrom: c.EmailFrom,

		S3Endpoint: c.S3Endpoint,

		VaultOrigin:        c.VaultOrigin,
		VaultMaxUploadSize: c.VaultMaxUploadSize,
		VaultAcceptedTypes: c.VaultAcceptedTypes,
	}
}
