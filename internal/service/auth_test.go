package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/templui/hrvault/internal/model"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	svc, err := NewAuthService(AuthConfig{JWTSecret: "test-secret", Issuer: "hrvault"})
	if err != nil {
		t.Fatal(err)
	}

	token, expiry, err := svc.GenerateToken(&model.Identity{ID: "u1", Email: "ada@example.com", Role: "hr"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiry) < 23*time.Hour {
		t.Errorf("expiry = %v", expiry)
	}

	identity, err := svc.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if identity.ID != "u1" || identity.Email != "ada@example.com" || identity.Role != "hr" {
		t.Errorf("identity = %+v", identity)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	svc, err := NewAuthService(AuthConfig{JWTSecret: "test-secret", Issuer: "hrvault"})
	if err != nil {
		t.Fatal(err)
	}
	sign := func(secret string, c jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "hrvault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	otherIssuer := valid()
	otherIssuer.Issuer = "someone-else"
	noSubject := valid()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign("other-secret", valid())},
		{"expired", sign("test-secret", expired)},
		{"no expiry", sign("test-secret", noExpiry)},
		{"wrong issuer", sign("test-secret", otherIssuer)},
		{"no subject", sign("test-secret", noSubject)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyToken(context.Background(), tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewAuthServiceNeedsKeys(t *testing.T) {
	_, err := NewAuthService(AuthConfig{})
	if err == nil {
		t.Fatal("expected an error without secret or key set")
	}
}

func TestVerifyTokenWithKeySet(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	jwk, err := jwkset.NewJWKFromKey(&key.PublicKey, jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{ALG: jwkset.AlgRS256, KID: "idp-1", USE: jwkset.UseSig},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := jwkset.NewMemoryStorage()
	err = store.KeyWrite(ctx, jwk)
	if err != nil {
		t.Fatal(err)
	}
	kf, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: store})
	if err != nil {
		t.Fatal(err)
	}

	svc, err := NewAuthService(AuthConfig{Keyfunc: kf})
	if err != nil {
		t.Fatal(err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "grace@example.com",
	})
	token.Header["kid"] = "idp-1"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	identity, err := svc.VerifyToken(ctx, signed)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if identity.ID != "u7" || identity.Email != "grace@example.com" {
		t.Errorf("identity = %+v", identity)
	}

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("guess"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.VerifyToken(ctx, hmac)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("HS256 token accepted in key set mode: %v", err)
	}

	_, _, err = svc.GenerateToken(&model.Identity{ID: "u7"})
	if err == nil {
		t.Error("GenerateToken should need a secret")
	}
}
