package patient

import (
	"strings"
	"unicode"

	"github.com/previmed/registro/internal/shared/errors"
)

// InitialsPlaceholder substitutes the second initial when no family name
// was supplied.
const InitialsPlaceholder = "X"

// Identity is the normalized form of a raw national-ID string.
type Identity struct {
	// Full is the canonical identity (uppercase alphanumerics only), used
	// for exact-match lookup. Punctuation variants of the same identity
	// canonicalize to the same value.
	Full string
	// Fragment is the 3 characters preceding the check digit of the
	// digits-only form, used for privacy-preserving lookup
	Fragment string
}

// NormalizeIdentity canonicalizes a raw identity string and derives the
// lookup fragment. Formatting characters (dots, dashes, spaces) are
// stripped; the fragment is the 3 digits ending one position before the
// end of the digits-only form, which must have at least 4 digits.
func NormalizeIdentity(raw string) (Identity, error) {
	full := alphanumericUpper(raw)

	digits := digitsOnly(full)
	if len(digits) < 4 {
		return Identity{}, errors.InvalidIdentity("identity must contain at least 4 digits")
	}

	return Identity{
		Full:     full,
		Fragment: digits[len(digits)-4 : len(digits)-1],
	}, nil
}

// DeriveInitials builds the 2-letter initials from the given and family
// names. The family initial defaults to a placeholder when absent. The
// result is always exactly 2 uppercase characters.
func DeriveInitials(firstName, lastName string) string {
	first := firstRune(firstName)
	last := firstRune(lastName)
	if last == "" {
		last = InitialsPlaceholder
	}
	return strings.ToUpper(first + last)
}

func firstRune(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return string(r)
	}
	return ""
}

func alphanumericUpper(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
