package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateScale checks the rig scale. The scale divides actual distances into
// proxy distances, so it must be a finite number greater than zero.
func ValidateScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return New(ErrCodeInvalidParameter, "scale must be a finite number, got %g", scale)
	}
	if scale <= 0 {
		return New(ErrCodeInvalidParameter, "scale must be greater than zero, got %g", scale)
	}
	return nil
}

// ValidateFinite checks that a named parameter is neither NaN nor infinite.
// Negative values are accepted: a negative falloff power is a legal way to
// grow objects with distance.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidParameter, "%s must be a finite number, got %g", name, v)
	}
	return nil
}

// ValidateName validates a frame or object name.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 63 characters (host naming limit)
//   - No control characters
//   - No path separators, which are used to address frames as "rig/frame"
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidParameter, "name cannot be empty")
	}

	const maxNameLength = 63
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidParameter, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidParameter, "name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidParameter, "name cannot contain path separators: %q", name)
	}

	return nil
}

// ValidateScenePath validates a scene file path.
// Scene files are JSON documents, so the extension must be ".json".
func ValidateScenePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "scene path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "scene path contains invalid characters")
		}
	}

	if ext := filepath.Ext(path); ext != ".json" {
		return New(ErrCodeInvalidPath, "scene file must have .json extension, got %q", ext)
	}

	return nil
}
