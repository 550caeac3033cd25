// Package urlsafe classifies redirect targets before they are handed to a user.
// This is part of the platform layer and contains no business logic.
//
// The check is purely syntactic: no DNS lookups and no HTTP probes, so it never
// blocks and never fails because of a transient network condition.
package urlsafe

import (
	"net/url"
	"strings"
	"unicode"
)

// minHostLength is the shortest hostname that is not considered degenerate.
// Hostnames must be strictly longer than this.
const minHostLength = 3

// allowedSchemes is an allowlist. Anything not listed here is rejected,
// including http, javascript, data, file, vbscript and about.
var allowedSchemes = map[string]bool{
	"https": true,
}

// IsValidExternalTarget reports whether s may be returned to a user as an
// external redirect target.
func IsValidExternalTarget(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if strings.IndexFunc(trimmed, isUnsafeRune) >= 0 {
		return false
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if !u.IsAbs() || u.Opaque != "" {
		return false
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return false
	}
	if u.User != nil {
		return false
	}

	host := u.Hostname()
	return len(host) > minHostLength
}

// IsValidExternalTargetPtr is IsValidExternalTarget for optional values.
// A nil pointer is never a valid target.
func IsValidExternalTargetPtr(s *string) bool {
	if s == nil {
		return false
	}
	return IsValidExternalTarget(*s)
}

func isUnsafeRune(r rune) bool {
	return unicode.IsControl(r) || unicode.IsSpace(r)
}
