// Package nameutil normalizes and validates scheduled-search names.
package nameutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sgov-project/sgov/pkg/errclass"
)

// MaxNameLength bounds a saved-search name.
const MaxNameLength = 1024

// Normalize returns the NFC form of name with surrounding space removed.
func Normalize(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// ValidateSearchName checks a saved-search name. Names may contain spaces
// and punctuation but not control characters.
func ValidateSearchName(name string) error {
	name = Normalize(name)
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("search name must not be empty")
	}
	if len(name) > MaxNameLength {
		return errclass.ErrNameInvalid.WithMessagef("search name longer than %d bytes", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("search name must not contain control characters: %q", name)
		}
	}
	return nil
}

// ValidateLookupName checks a lookup table name used as a file or table name.
func ValidateLookupName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("lookup name must not be empty")
	}
	if name == ".." || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("lookup name must not contain path elements: %s", name)
	}
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return errclass.ErrNameInvalid.WithMessagef("lookup name must match [A-Za-z0-9_-]+: %s", name)
		}
	}
	return nil
}
