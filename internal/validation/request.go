// Package validation checks caller input before any side effect happens.
package validation

import (
	"errors"
	"strings"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/models"
)

// ErrURLRequired is returned when the URL is empty after trimming.
var ErrURLRequired = errors.New("URL is required")

// UnsupportedFormatError is returned for formats outside the recognized set.
type UnsupportedFormatError struct {
	Format string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return "Unsupported format: " + e.Format
}

// Is allows for error checking with errors.Is().
func (e *UnsupportedFormatError) Is(target error) bool {
	_, ok := target.(*UnsupportedFormatError)
	return ok
}

// ValidateRequest normalizes req and checks it against the recognized formats.
//
// The URL is trimmed, the format trimmed and lower-cased. The URL is checked first.
func ValidateRequest(req models.DownloadRequest) (models.DownloadRequest, error) {
	norm := models.DownloadRequest{
		URL:    strings.TrimSpace(req.URL),
		Format: strings.ToLower(strings.TrimSpace(req.Format)),
	}

	if norm.URL == "" {
		return norm, ErrURLRequired
	}
	if !consts.IsSupportedFormat(norm.Format) {
		return norm, &UnsupportedFormatError{Format: norm.Format}
	}
	return norm, nil
}
