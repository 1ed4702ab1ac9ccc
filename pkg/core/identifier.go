package core

import (
	"fmt"
	"regexp"
)

// DDL cannot be parameterized like DML, so every identifier interpolated
// into a rendered statement must come through this allow-list first.
// 64 is the tightest identifier length limit across the supported dialects.
const MaxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to interpolate into DDL.
func ValidIdentifier(name string) bool {
	return len(name) > 0 && len(name) <= MaxIdentifierLength && identifierPattern.MatchString(name)
}

// ValidateIdentifier returns a descriptive error when name is not a safe
// SQL identifier.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d characters", name, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("identifier %q contains characters outside [A-Za-z0-9_]", name)
	}
	return nil
}
