package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/templui/hrvault/internal/model"
)

func TestShareLinkEmailTemplate(t *testing.T) {
	expires := time.Date(2026, 4, 17, 8, 30, 0, 0, time.UTC)
	limit := 5
	link := &model.ShareLink{ExpiresAt: &expires, MaxDownloads: &limit}

	subject, body := shareLinkEmailTemplate("Ada", "Leave Policy.pdf", ResourceLabel(model.ResourceTypePolicy), "https://vault.example.com/vault/shared/abc", link, "HR Vault")

	if subject != `Ada shared "Leave Policy.pdf" with you` {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{
		"Ada shared a policy with you on HR Vault",
		"https://vault.example.com/vault/shared/abc",
		"This link expires on April 17, 2026 and can be downloaded 5 times.",
		"The HR Vault Team",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body misses %q:\n%s", want, body)
		}
	}
}

func TestShareLinkTerms(t *testing.T) {
	one := 1
	tests := []struct {
		link *model.ShareLink
		want string
	}{
		{&model.ShareLink{}, "This link does not expire."},
		{&model.ShareLink{MaxDownloads: &one}, "This link can be downloaded once."},
	}
	for _, tt := range tests {
		if got := shareLinkTerms(tt.link); got != tt.want {
			t.Errorf("terms = %q, want %q", got, tt.want)
		}
	}
}

func TestSendShareLinkEmail(t *testing.T) {
	file := &model.VaultFile{OriginalName: "Handbook.pdf", ResourceType: model.ResourceTypeDocument}
	link := &model.ShareLink{}

	dev := NewEmailService("", "vault@example.com", "HR Vault", true)
	err := dev.SendShareLinkEmail(context.Background(), "not an address", "Ada", file, link, "https://x")
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Errorf("err = %v, want ErrInvalidRecipient", err)
	}
	err = dev.SendShareLinkEmail(context.Background(), "Grace <grace@example.com>", "Ada", file, link, "https://x")
	if err != nil {
		t.Errorf("dev mode send: %v", err)
	}

	unconfigured := NewEmailService("", "vault@example.com", "HR Vault", false)
	err = unconfigured.SendShareLinkEmail(context.Background(), "grace@example.com", "Ada", file, link, "https://x")
	if err == nil {
		t.Error("expected an error without an API key")
	}
}
