// Package slug implements the canonical rules for tenant slugs: the lowercase,
// hyphen-safe identifiers that form a tenant's subdomain. The same rules apply
// everywhere a slug enters the system (signup forms, subdomain resolution,
// admin tooling), so this package is the single owner of them.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MinLength and MaxLength bound slugs to what DNS labels allow.
	MinLength = 3
	MaxLength = 63
)

var validChars = regexp.MustCompile(`^[a-z0-9-]+$`)

// reserved lists slugs that are permanently disallowed because they collide
// with platform surfaces or well-known DNS labels.
var reserved = map[string]struct{}{
	"admin": {}, "www": {}, "api": {}, "app": {}, "mail": {},
	"staging": {}, "dev": {}, "test": {}, "demo": {}, "support": {},
	"help": {}, "about": {}, "contact": {}, "blog": {}, "docs": {},
	"status": {}, "cdn": {}, "static": {}, "assets": {}, "media": {},
	"images": {}, "files": {}, "ftp": {}, "localhost": {},
}

// IsReserved reports whether the slug is on the permanent deny list.
func IsReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

// RuleError reports the first format rule a candidate slug violated. Callers
// that only care about format-vs-store failures can errors.As on it.
type RuleError struct {
	msg string
}

func (e *RuleError) Error() string { return e.msg }

func ruleErrorf(format string, args ...any) *RuleError {
	return &RuleError{msg: fmt.Sprintf(format, args...)}
}

// Validate applies the format policy to a candidate slug. Checks run in a
// fixed order and the first violation wins, so error messages are stable for
// a given input. Availability against existing tenants is a separate,
// store-backed concern and is deliberately not part of this function.
func Validate(candidate string) error {
	if candidate == "" {
		return ruleErrorf("slug is required")
	}
	if len(candidate) < MinLength {
		return ruleErrorf("slug must be at least %d characters", MinLength)
	}
	if len(candidate) > MaxLength {
		return ruleErrorf("slug must be at most %d characters", MaxLength)
	}
	if candidate != strings.ToLower(candidate) {
		return ruleErrorf("slug must be lowercase")
	}
	if !validChars.MatchString(candidate) {
		return ruleErrorf("slug may only contain lowercase letters, digits, and hyphens")
	}
	if strings.HasPrefix(candidate, "-") || strings.HasSuffix(candidate, "-") {
		return ruleErrorf("slug must not start or end with a hyphen")
	}
	if strings.Contains(candidate, "--") {
		return ruleErrorf("slug must not contain consecutive hyphens")
	}
	if IsReserved(candidate) {
		return ruleErrorf("slug %q is reserved", candidate)
	}
	return nil
}

// Slugify derives a best-effort slug from free-form text (typically a company
// name). The result is not guaranteed to pass Validate; callers must still
// validate it, since the input may slugify to something too short or reserved.
func Slugify(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))

	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := false
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.Trim(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.Trim(out[:MaxLength], "-")
	}
	return out
}
