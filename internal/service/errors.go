package service

import (
	"errors"
	"strings"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/repository"
	"github.com/templui/hrvault/internal/validation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrGatewayUnavailable = gateway.ErrUnavailable
	ErrUnauthenticated    = gateway.ErrUnauthenticated

	ErrTokenGenerationFailed = errors.New("share token generation failed")
	ErrPersistenceFailed     = errors.New("share link could not be saved")
	ErrFileUpdateFailed      = errors.New("file could not be marked as shared")
	ErrInvalidSharePolicy    = errors.New("invalid share policy")
	ErrMissingToken          = errors.New("share link has no token")
	ErrLinkNotFound          = errors.New("share link not found")
	ErrLinkUnusable          = errors.New("share link is no longer usable")

	ErrValidationFailed = errors.New("file failed validation")
	ErrFileNotFound     = repository.ErrFileNotFound
)

// UserMessage turns an error kind into a message that can be shown as is.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidationFailed):
		return validationMessage(err)
	case errors.Is(err, ErrUnauthenticated):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrTokenGenerationFailed):
		return "Could not generate a share link. Please try again."
	case errors.Is(err, ErrPersistenceFailed):
		return "The share link could not be saved. Please try again."
	case errors.Is(err, ErrInvalidSharePolicy):
		return "Choose a valid expiry and download limit."
	case errors.Is(err, ErrLinkNotFound):
		return "This share link does not exist."
	case errors.Is(err, ErrLinkUnusable):
		return "This share link has expired or reached its download limit."
	case errors.Is(err, ErrFileNotFound):
		return "File not found."
	case errors.Is(err, ErrGatewayUnavailable):
		return "Network error, please try again."
	}
	return "Something went wrong. Please try again."
}

func validationMessage(err error) string {
	var parts []string
	if errors.Is(err, validation.ErrFileNameRequired) {
		parts = append(parts, "File name is required")
	}
	if errors.Is(err, validation.ErrFileTypeNotAllowed) {
		parts = append(parts, "File type not allowed")
	}
	if errors.Is(err, validation.ErrFileTooLarge) {
		parts = append(parts, "File is too large")
	}
	if len(parts) == 0 {
		return "File is not valid."
	}
	return strings.Join(parts, "; ") + "."
}

// ResourceLabel renders a resource type for people, e.g. "Legal Notice".
func ResourceLabel(rt model.ResourceType) string {
	if rt == "" {
		return "Document"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(rt), "_", " "))
}
