package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/validation"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("procedure vault-upload: %w", ErrUnauthenticated), "Your session has expired. Please sign in again."},
		{fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(validation.ErrFileTypeNotAllowed, validation.ErrFileTooLarge)), "File type not allowed; File is too large."},
		{ErrLinkUnusable, "This share link has expired or reached its download limit."},
		{fmt.Errorf("%w: dial tcp", ErrGatewayUnavailable), "Network error, please try again."},
		{fmt.Errorf("%w: %w", ErrPersistenceFailed, ErrGatewayUnavailable), "The share link could not be saved. Please try again."},
		{errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestResourceLabel(t *testing.T) {
	tests := map[model.ResourceType]string{
		model.ResourceTypeLegalNotice: "Legal Notice",
		model.ResourceTypePolicy:      "Policy",
		"":                            "Document",
	}
	for rt, want := range tests {
		if got := ResourceLabel(rt); got != want {
			t.Errorf("ResourceLabel(%q) = %q, want %q", rt, got, want)
		}
	}
}
