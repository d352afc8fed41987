package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		ok       bool
	}{
		{"simple", "alice1", true},
		{"minimum length", "abc", true},
		{"maximum length", strings.Repeat("a", 20), true},
		{"underscores and hyphens", "a_b-c", true},
		{"mixed case", "Alice-01_X", true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", 21), false},
		{"empty", "", false},
		{"space", "ali ce", false},
		{"punctuation", "alice!", false},
		{"unicode", "ålice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateUsername(tt.username)
			require.Equal(t, tt.ok, res.OK)
			if !tt.ok {
				require.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestValidatePassword_Accepts(t *testing.T) {
	t.Parallel()

	valid := []string{
		"Abcdef1!",
		"Passw0rd?",
		"xY9[]{}aa",
		"A1b" + strings.Repeat("c", 64) + "!@#$%",
		"Spa ce1!", // space is in the special set
	}
	for _, p := range valid {
		require.True(t, ValidatePassword(p).OK, "expected %q to pass", p)
	}
}

func TestValidatePassword_RejectsWithRuleReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{"too short", "Ab1!", "at least 8 characters"},
		{"no uppercase", "abcdef1!", "uppercase"},
		{"no lowercase", "ABCDEF1!", "lowercase"},
		{"no digit", "Abcdefg!", "digit"},
		{"no special", "Abcdefg1", "special"},
		{"over 72 bytes", "A1!" + strings.Repeat("a", 70), "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidatePassword(tt.password)
			require.False(t, res.OK)
			require.Contains(t, res.Reason, tt.reason)
		})
	}
}

func TestValidatePassword_ByteLengthNotRuneLength(t *testing.T) {
	t.Parallel()

	// 25 three-byte runes plus the four required classes: 29 runes, 79 bytes.
	p := "Aa1!" + strings.Repeat("€", 25)
	res := ValidatePassword(p)
	require.False(t, res.OK)
	require.Contains(t, res.Reason, "too long")
}
