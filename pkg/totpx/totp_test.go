package totpx

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	s1, err := GenerateSecret()
	require.NoError(t, err)
	// 20 bytes base32 without padding is 32 characters.
	require.Len(t, s1, 32)

	s2, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	uri := ProvisioningURI("Quartermaster", "alice1", "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")

	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))

	parsed, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "otpauth", parsed.Scheme)
	require.Equal(t, "/Quartermaster:alice1", parsed.Path)

	q := parsed.Query()
	require.Equal(t, "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP", q.Get("secret"))
	require.Equal(t, "Quartermaster", q.Get("issuer"))
	require.Equal(t, "30", q.Get("period"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "SHA1", q.Get("algorithm"))
}

func TestVerify_CurrentCode(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	code, err := CurrentCode(secret)
	require.NoError(t, err)
	require.True(t, Verify(secret, code))
}

func TestVerify_SkewWindow(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Now()

	prev, err := totp.GenerateCode(secret, now.Add(-Period*time.Second))
	require.NoError(t, err)
	next, err := totp.GenerateCode(secret, now.Add(Period*time.Second))
	require.NoError(t, err)

	require.True(t, verifyAt(secret, prev, now), "previous step must verify")
	require.True(t, verifyAt(secret, next, now), "next step must verify")

	// Two steps out is beyond the fixed skew. Tolerate the rare collision
	// where the distant step happens to produce the same code.
	far, err := totp.GenerateCode(secret, now.Add(-3*Period*time.Second))
	require.NoError(t, err)
	cur, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	if far != cur && far != prev && far != next {
		require.False(t, verifyAt(secret, far, now))
	}
}

func TestVerify_WrongCodeRejected(t *testing.T) {
	t.Parallel()

	// Assert over many secrets so a single accidental collision cannot flake
	// the test: at most a negligible fraction may falsely accept.
	const trials = 32
	rejected := 0
	for range trials {
		secret, err := GenerateSecret()
		require.NoError(t, err)

		code, err := CurrentCode(secret)
		require.NoError(t, err)

		// Increment the code mod 1e6.
		var n int
		_, err = fmt.Sscanf(code, "%d", &n)
		require.NoError(t, err)
		wrong := fmt.Sprintf("%06d", (n+1)%1000000)

		if !Verify(secret, wrong) {
			rejected++
		}
	}
	require.GreaterOrEqual(t, rejected, trials-1)
}

func TestVerify_MalformedCodesFailFast(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef", "12 456"} {
		require.False(t, Verify(secret, code), "code %q must be rejected", code)
	}
}

func TestRenderQR(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri := ProvisioningURI("Quartermaster", "alice1", secret)
	img, err := RenderQR(uri, 250)
	require.NoError(t, err)

	// PNG magic bytes.
	require.Greater(t, len(img), 8)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img[:4])

	_, err = RenderQR("://not-a-uri", 250)
	require.Error(t, err)
}
