package config

import (
	"slices"
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_LIST", " application/pdf, ,text/plain ")
	t.Setenv("TEST_INT", "nope")
	t.Setenv("TEST_DURATION", "45s")
	t.Setenv("TEST_BOOL", "false")

	if got := envList("TEST_LIST", nil); !slices.Equal(got, []string{"application/pdf", "text/plain"}) {
		t.Errorf("envList = %v", got)
	}
	if got := envList("TEST_LIST_UNSET", []string{"a"}); !slices.Equal(got, []string{"a"}) {
		t.Errorf("envList default = %v", got)
	}
	if got := envInt("TEST_INT", 10); got != 10 {
		t.Errorf("envInt invalid = %d, want default", got)
	}
	if got := envDuration("TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Errorf("envDuration = %v", got)
	}
	if got := envBool("TEST_BOOL", true); got {
		t.Error("envBool = true")
	}
	if got := envString("TEST_STRING_UNSET", "fallback"); got != "fallback" {
		t.Errorf("envString = %q", got)
	}
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:      "HR Vault",
		AppEnv:       "production",
		JWTSecret:    "secret",
		ResendAPIKey: "re_123",
		S3AccessKey:  "key",
		S3SecretKey:  "secret",
		SentryDSN:    "https://sentry",
		VaultOrigin:  "https://vault.example.com",
	}

	s := cfg.Sanitized()
	if s.JWTSecret != "" || s.ResendAPIKey != "" || s.S3AccessKey != "" || s.S3SecretKey != "" || s.SentryDSN != "" {
		t.Errorf("secrets leaked: %+v", s)
	}
	if s.AppName != "HR Vault" || s.VaultOrigin != "https://vault.example.com" || !s.IsProduction() {
		t.Errorf("public fields lost: %+v", s)
	}
}

func TestParsePrefixes(t *testing.T) {
	got, err := ParsePrefixes([]string{"10.0.0.0/8", "192.0.2.10", "2001:db8::/32", "::ffff:198.51.100.1"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.10/32", "2001:db8::/32", "198.51.100.1/32"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, p := range got {
		if p.String() != want[i] {
			t.Errorf("prefix %d = %s, want %s", i, p, want[i])
		}
	}

	if _, err := ParsePrefixes([]string{"proxy.internal"}); err == nil {
		t.Error("hostname accepted")
	}
}
