package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileNameRequired   = errors.New("file name is required")
)

// FileConstraints defines validation rules for vault uploads
type FileConstraints struct {
	AllowedMimeTypes map[string]bool
	MaxSize          int64 // inclusive
}

var (
	// DocumentConstraints is the default rule set for vault documents
	DocumentConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
			"image/jpeg": true,
			"image/png":  true,
			"text/plain": true,
		},
		MaxSize: 20 << 20, // 20MB
	}
)

// NewFileConstraints builds a rule set from a media type allow-list.
func NewFileConstraints(mimeTypes []string, maxSize int64) FileConstraints {
	allowed := make(map[string]bool, len(mimeTypes))
	for _, t := range mimeTypes {
		allowed[normalizeMediaType(t)] = true
	}
	return FileConstraints{AllowedMimeTypes: allowed, MaxSize: maxSize}
}

// Validate checks the declared media type and the size of a selected file.
// Both rules are always evaluated; the returned error joins every violation.
func (c FileConstraints) Validate(name, mediaType string, size int64) error {
	var errs []error

	if strings.TrimSpace(name) == "" {
		errs = append(errs, ErrFileNameRequired)
	}

	mt := normalizeMediaType(mediaType)
	if !c.AllowedMimeTypes[mt] {
		if mt == "" {
			mt = "unknown (" + strings.ToLower(filepath.Ext(name)) + ")"
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, mt))
	}

	if size > c.MaxSize {
		errs = append(errs, fmt.Errorf("%w: maximum size is %s", ErrFileTooLarge, humanSize(c.MaxSize)))
	}

	return errors.Join(errs...)
}

// normalizeMediaType drops parameters such as "; charset=utf-8".
func normalizeMediaType(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
