// Package policy holds the stateless username and password acceptance rules.
// Validators are pure functions; they perform no I/O and short-circuit on the
// first failing rule.
package policy

import (
	"strings"
	"unicode"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 8
	// MaxPasswordBytes mirrors the hasher's input limit so oversized
	// passwords are rejected before any hashing work.
	MaxPasswordBytes = 72
)

// SpecialCharacters is the fixed set of characters that satisfies the
// password special-character rule.
const SpecialCharacters = ` !@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Result reports the outcome of a validation check. Reason is human-readable
// and names the first rule that failed; it is safe to show to the user.
type Result struct {
	OK     bool
	Reason string
}

func ok() Result           { return Result{OK: true} }
func fail(r string) Result { return Result{Reason: r} }

// ValidateUsername checks that a username is 3-20 characters and contains
// only letters, digits, underscores or hyphens.
func ValidateUsername(username string) Result {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fail("username must be between 3 and 20 characters")
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return fail("username can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return ok()
}

// ValidatePassword checks the password complexity rules. Rules are evaluated
// in a fixed order and the first failure wins: minimum length, uppercase,
// lowercase, digit, special character, maximum byte length.
func ValidatePassword(password string) Result {
	runes := []rune(password)
	if len(runes) < MinPasswordLength {
		return fail("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(SpecialCharacters, r) {
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return fail("password must contain at least one uppercase letter")
	case !hasLower:
		return fail("password must contain at least one lowercase letter")
	case !hasDigit:
		return fail("password must contain at least one digit")
	case !hasSpecial:
		return fail("password must contain at least one special character")
	}

	if len(password) > MaxPasswordBytes {
		return fail("password is too long (max 72 bytes)")
	}
	return ok()
}
