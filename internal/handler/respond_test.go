package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/service"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("procedure vault-upload: %w", service.ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("%w: too large", service.ErrValidationFailed), http.StatusBadRequest},
		{errors.Join(service.ErrInvalidSharePolicy, errors.New("unknown expiry policy")), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrFileNotFound, service.ErrAccessDenied), http.StatusNotFound},
		{fmt.Errorf("procedure redeem-share-link: %w", service.ErrLinkUnusable), http.StatusGone},
		{fmt.Errorf("%w: %w", service.ErrTokenGenerationFailed, gateway.ErrUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", service.ErrPersistenceFailed, gateway.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: query", gateway.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorStatus(tt.err); got != tt.status {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
