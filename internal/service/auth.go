package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
)

const AuthCookieName = "auth_token"

var ErrInvalidToken = errors.New("invalid token")

type AuthConfig struct {
	// JWTSecret verifies and signs HS256 tokens.
	JWTSecret string
	JWTExpiry time.Duration

	// JWKSURL switches verification to RS256/ES256 keys of an external
	// identity provider.
	JWKSURL     string
	JWKSRefresh time.Duration
	Issuer      string

	// Keyfunc overrides JWKSURL; used with a static key set.
	Keyfunc keyfunc.Keyfunc

	IsProduction bool
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AuthService turns bearer tokens into identities. Users sign in at the
// identity provider; this service only verifies what it issued.
type AuthService struct {
	secret       []byte
	jwks         keyfunc.Keyfunc
	issuer       string
	expiry       time.Duration
	isProduction bool
	log          *slog.Logger
}

func NewAuthService(cfg AuthConfig) (*AuthService, error) {
	s := &AuthService{
		secret:       []byte(cfg.JWTSecret),
		jwks:         cfg.Keyfunc,
		issuer:       cfg.Issuer,
		expiry:       cfg.JWTExpiry,
		isProduction: cfg.IsProduction,
		log:          logger.Component("auth"),
	}
	if s.expiry <= 0 {
		s.expiry = 24 * time.Hour
	}

	if s.jwks == nil && cfg.JWKSURL != "" {
		refresh := cfg.JWKSRefresh
		if refresh <= 0 {
			refresh = time.Hour
		}
		storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
			Client:                    &http.Client{Timeout: 10 * time.Second},
			NoErrorReturnFirstHTTPReq: true,
			RefreshInterval:           refresh,
			RefreshErrorHandler: func(_ context.Context, err error) {
				s.log.Error("failed to refresh jwks", "error", err, "url", cfg.JWKSURL)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create jwks storage: %w", err)
		}
		s.jwks, err = keyfunc.New(keyfunc.Options{Storage: storage})
		if err != nil {
			return nil, fmt.Errorf("failed to create keyfunc: %w", err)
		}
	}

	if s.jwks == nil && len(s.secret) == 0 {
		return nil, errors.New("auth needs JWT_SECRET or JWKS_URL")
	}
	return s, nil
}

// VerifyToken validates a token and returns the identity it carries.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*model.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var kf jwt.Keyfunc
	if s.jwks != nil {
		kf = s.jwks.KeyfuncCtx(ctx)
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "ES256"}))
	} else {
		kf = func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		}
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, kf, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &model.Identity{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

// GenerateToken signs an HS256 token for identity. It is used by the
// development sign-in and by tests; production tokens come from the IdP.
func (s *AuthService) GenerateToken(identity *model.Identity) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("token signing needs JWT_SECRET")
	}

	now := time.Now()
	expiry := now.Add(s.expiry)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Email: identity.Email,
		Role:  identity.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiry, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
