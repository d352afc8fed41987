package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize256 is the token byte length before encoding, providing 256 bits
// of entropy (43 chars base64url). Session cookies use this size.
const TokenSize256 = 32

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned base64url-encoded without padding. Session
// cookies use TokenSize256.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
