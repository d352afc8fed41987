// Package totpx wraps github.com/pquerna/otp with the fixed parameters used
// for second-factor codes: 30 second period, 6 digits, SHA-1, and a clock
// skew tolerance of one step either side.
package totpx

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretBytes is the entropy of a generated secret before base32
	// encoding. 20 bytes = 160 bits, the RFC 4226 recommendation.
	SecretBytes = 20

	// Period is the TOTP time step in seconds.
	Period = 30

	// Skew is the number of adjacent time steps accepted either side of the
	// current one. One step of tolerance is fixed; it is not configurable.
	Skew = 1

	// Digits in a code.
	Digits = 6
)

// GenerateSecret returns a new base32-encoded TOTP secret with 160 bits of
// entropy.
func GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		// Issuer and AccountName are required by the generator but only
		// affect the embedded URL, which we discard; ProvisioningURI builds
		// the real one.
		Issuer:      "quartermaster",
		AccountName: "secret",
		SecretSize:  SecretBytes,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return key.Secret(), nil
}

// ProvisioningURI builds a standard otpauth://totp/ URI for the given issuer,
// account name and secret, consumable by any authenticator app.
func ProvisioningURI(issuer, account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("period", fmt.Sprintf("%d", Period))
	v.Set("algorithm", otp.AlgorithmSHA1.String())
	v.Set("digits", otp.DigitsSix.String())

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// Verify reports whether code is valid for secret at the current time,
// accepting the current 30 second step and one step either side. Codes that
// are not exactly six ASCII digits are rejected before any HMAC computation.
func Verify(secret, code string) bool {
	return verifyAt(secret, code, time.Now())
}

func verifyAt(secret, code string, at time.Time) bool {
	if !wellFormedCode(code) {
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

func wellFormedCode(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// CurrentCode computes the code for the current time step. Intended for
// tests and the enrollment flow, not for verification.
func CurrentCode(secret string) (string, error) {
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP code: %w", err)
	}
	return code, nil
}

// RenderQR renders a provisioning URI as a PNG image suitable for scanning
// with an authenticator app. It is a pure transformation of the URI.
func RenderQR(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid provisioning URI: %w", err)
	}

	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR PNG: %w", err)
	}
	return buf.Bytes(), nil
}
