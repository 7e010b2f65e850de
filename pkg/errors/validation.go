package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeCount validates a requested topology size against the
// store's hard ceiling. The lower bound matches the smallest topology the
// generator produces something meaningful for.
func ValidateNodeCount(n, min, max int) error {
	if n < min {
		return New(ErrCodeInvalidInput, "node count %d too small (min %d)", n, min)
	}
	if n > max {
		return New(ErrCodeInvalidInput, "node count %d too large (max %d)", n, max)
	}
	return nil
}

// ValidateProbability validates a cross-link density in (0, 1].
func ValidateProbability(p float64) error {
	if p <= 0 || p > 1 {
		return New(ErrCodeInvalidInput, "probability %.3f out of range (0, 1]", p)
	}
	return nil
}

// supportedFormats lists the artifact formats the render stage can emit.
var supportedFormats = map[string]bool{
	"dot":  true,
	"svg":  true,
	"png":  true,
	"json": true,
}

// ValidateFormat validates an artifact output format.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !supportedFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported format %q (dot, svg, png, json)", format)
	}
	return nil
}

// topologyNameRegex matches names safe for filenames and archive documents.
var topologyNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._ -]*$`)

// ValidateTopologyName validates an optional topology or run name.
// Empty names are allowed; callers substitute a default.
//
// The validation rules are intentionally conservative:
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateTopologyName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "name cannot contain path separators or traversal sequences")
	}

	if !topologyNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid name: %q", name)
	}

	return nil
}

// ValidateOutputPath validates a user-supplied artifact path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
