package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateChipName validates a sub-chip type name before it is used to build
// a sibling file path. Chip names are HDL identifiers: a letter or underscore
// followed by letters, digits or underscores.
func ValidateChipName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidChip, "chip name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidChip, "chip name too long (max 128 characters)")
	}

	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return New(ErrCodeInvalidChip, "invalid chip name: %q", name)
		}
	}

	return nil
}

// ValidateModulePath validates the path of a module submitted for visualization.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Must carry the .hdl extension
func ValidateModulePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".hdl") {
		return New(ErrCodeInvalidInput, "input file does not have the .hdl extension")
	}

	return nil
}
