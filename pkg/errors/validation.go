package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds entity and camera names in scene files.
const maxNameLength = 128

// nameRegex matches identifiers usable as entity or camera names.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates an entity or camera name from a scene file.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 128 characters
//   - No control characters
//   - Starts with a letter or underscore, then letters, digits, '_', '.', '-'
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidScene, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidScene, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScene, "name contains invalid characters")
		}
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidScene, "invalid name: %q", name)
	}

	return nil
}

// ValidateScenePath validates the path of a scene file given on the command
// line. Only TOML files are accepted.
func ValidateScenePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidInput, "scene path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidInput, "scene path contains invalid characters")
	}

	if !strings.HasSuffix(strings.ToLower(path), ".toml") {
		return New(ErrCodeInvalidInput, "scene file must have a .toml extension: %q", path)
	}

	return nil
}
