package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/quartermasterhq/quartermaster/internal/domain"
	sqlitestore "github.com/quartermasterhq/quartermaster/internal/store/drivers/sqlite"
	"github.com/quartermasterhq/quartermaster/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "service-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func newAuthService(t *testing.T) (*AuthService, *sqlitestore.Store) {
	t.Helper()

	st, err := sqlitestore.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &AuthService{
		Store:  st,
		Audit:  &AuditService{Store: st},
		Issuer: "Quartermaster",
	}, st
}

// wrongCode returns a well-formed six digit code that is not valid for
// secret in the current skew window.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now()
	valid := map[string]bool{}
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := totp.GenerateCode(secret, now.Add(offset))
		require.NoError(t, err)
		valid[c] = true
	}

	var n int
	cur, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	_, err = fmt.Sscanf(cur, "%d", &n)
	require.NoError(t, err)

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%06d", (n+i)%1000000)
		if !valid[candidate] {
			return candidate
		}
	}
}

// register walks a session through the full registration flow.
func register(t *testing.T, svc *AuthService, username, password string) {
	t.Helper()
	ctx := context.Background()

	sess := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(sess))

	enrollment, err := svc.SubmitRegistration(ctx, sess, username, password)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration(ctx, sess, code))
}

func TestRegistrationRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, st := newAuthService(t)

	sess := domain.NewAuthSession()
	require.Equal(t, domain.StepLogin, sess.Step)

	require.NoError(t, svc.StartRegistration(sess))
	require.Equal(t, domain.StepRegister, sess.Step)

	enrollment, err := svc.SubmitRegistration(ctx, sess, "alice1", "Abcdef1!")
	require.NoError(t, err)
	require.Equal(t, domain.StepRegisterOTP, sess.Step)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URI, "otpauth://totp/")
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, enrollment.QRPNG[:4])
	require.Equal(t, "Abcdef1!", sess.PendingRegistration.Password,
		"plaintext held in memory until OTP confirmation")

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration(ctx, sess, code))
	require.Equal(t, domain.StepLogin, sess.Step)
	require.Nil(t, sess.PendingRegistration, "pending registration wiped on success")

	u, err := st.Users().GetUserByUsername(ctx, "alice1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, u.Role)
	require.NotEqual(t, "Abcdef1!", u.PasswordHash)
	require.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	require.Equal(t, enrollment.Secret, u.TOTPSecret)
}

func TestRegistrationValidationFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	sess := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(sess))

	tests := []struct {
		name     string
		username string
		password string
		reason   string
	}{
		{"bad username", "a!", "Abcdef1!", "username"},
		{"short password", "alice1", "Ab1!", "8 characters"},
		{"no special char", "alice1", "Abcdefg1", "special"},
		{"oversized password", "alice1", "A1!" + strings.Repeat("a", 70), "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRegistration(ctx, sess, tt.username, tt.password)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Contains(t, ve.Reason, tt.reason)
			require.Equal(t, domain.StepRegister, sess.Step, "failed guard leaves state unchanged")
		})
	}
}

func TestRegistrationDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	register(t, svc, "alice1", "Abcdef1!")

	// A second registration with the same name is rejected before any OTP
	// step regardless of password.
	sess := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(sess))
	_, err := svc.SubmitRegistration(ctx, sess, "alice1", "Other9$x")
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.Equal(t, domain.StepRegister, sess.Step)
}

func TestRegistrationUniquenessRaceStaysRetryable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	// Two sessions validate the same name before either inserts.
	s1 := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(s1))
	e1, err := svc.SubmitRegistration(ctx, s1, "race-user", "Abcdef1!")
	require.NoError(t, err)

	s2 := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(s2))
	e2, err := svc.SubmitRegistration(ctx, s2, "race-user", "Abcdef1!")
	require.NoError(t, err)

	code1, err := totp.GenerateCode(e1.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration(ctx, s1, code1))

	// The loser hits the unique index, surfaces a conflict and stays in
	// REGISTER_OTP for retry.
	code2, err := totp.GenerateCode(e2.Secret, time.Now())
	require.NoError(t, err)
	err = svc.ConfirmRegistration(ctx, s2, code2)
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.Equal(t, domain.StepRegisterOTP, s2.Step)
	require.NotNil(t, s2.PendingRegistration)
}

func TestRegistrationWrongOTP(t *testing.T) {
	ctx := context.Background()
	svc, st := newAuthService(t)

	sess := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(sess))
	enrollment, err := svc.SubmitRegistration(ctx, sess, "alice1", "Abcdef1!")
	require.NoError(t, err)

	err = svc.ConfirmRegistration(ctx, sess, wrongCode(t, enrollment.Secret))
	require.ErrorIs(t, err, ErrInvalidOTPCode)
	require.Equal(t, domain.StepRegisterOTP, sess.Step, "invalid code leaves session retryable")

	_, err = st.Users().GetUserByUsername(ctx, "alice1")
	require.Error(t, err, "no record persisted before OTP confirmation")
}

func TestRegistrationCancel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	sess := domain.NewAuthSession()
	require.NoError(t, svc.StartRegistration(sess))
	_, err := svc.SubmitRegistration(ctx, sess, "alice1", "Abcdef1!")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(sess))
	require.Equal(t, domain.StepLogin, sess.Step)
	require.Nil(t, sess.PendingRegistration)
}

func TestLoginFlow(t *testing.T) {
	ctx := context.Background()
	svc, st := newAuthService(t)

	register(t, svc, "alice1", "Abcdef1!")

	sess := domain.NewAuthSession()

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		errUnknown := svc.SubmitCredentials(ctx, sess, "whoami", "Abcdef1!")
		errWrong := svc.SubmitCredentials(ctx, sess, "alice1", "Wrong-Pass1!")
		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.ErrorIs(t, errWrong, ErrInvalidCredentials)
		require.Equal(t, errUnknown.Error(), errWrong.Error())
		require.Equal(t, domain.StepLogin, sess.Step)
	})

	t.Run("oversized password never reaches the hasher", func(t *testing.T) {
		err := svc.SubmitCredentials(ctx, sess, "alice1", strings.Repeat("a", 73))
		require.ErrorIs(t, err, cryptox.ErrPasswordTooLong)
		require.Equal(t, domain.StepLogin, sess.Step)
	})

	t.Run("valid credentials advance to OTP", func(t *testing.T) {
		require.NoError(t, svc.SubmitCredentials(ctx, sess, "alice1", "Abcdef1!"))
		require.Equal(t, domain.StepOTP, sess.Step)
		require.Equal(t, "alice1", sess.PendingUsername)
		require.False(t, sess.Authenticated)
	})

	t.Run("wrong OTP stays in OTP with retries available", func(t *testing.T) {
		u, err := st.Users().GetUserByUsername(ctx, "alice1")
		require.NoError(t, err)

		for range 3 {
			err := svc.SubmitOTP(ctx, sess, wrongCode(t, u.TOTPSecret))
			require.ErrorIs(t, err, ErrInvalidOTPCode)
			require.Equal(t, domain.StepOTP, sess.Step)
			require.Equal(t, "alice1", sess.PendingUsername)
			require.False(t, sess.Authenticated)
		}
	})

	t.Run("correct OTP reaches the dashboard", func(t *testing.T) {
		u, err := st.Users().GetUserByUsername(ctx, "alice1")
		require.NoError(t, err)

		code, err := totp.GenerateCode(u.TOTPSecret, time.Now())
		require.NoError(t, err)

		require.NoError(t, svc.SubmitOTP(ctx, sess, code))
		require.Equal(t, domain.StepDashboard, sess.Step)
		require.True(t, sess.Authenticated)
		require.Equal(t, "alice1", sess.Username)
		require.Equal(t, domain.RoleUser, sess.Role)
	})

	t.Run("logout clears everything", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, sess))
		require.Equal(t, domain.StepLogin, sess.Step)
		require.False(t, sess.Authenticated)
		require.Empty(t, sess.Username)
		require.Empty(t, sess.PendingUsername)
	})
}

func TestOTPCancelClearsPendingUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	register(t, svc, "alice1", "Abcdef1!")

	sess := domain.NewAuthSession()
	require.NoError(t, svc.SubmitCredentials(ctx, sess, "alice1", "Abcdef1!"))
	require.Equal(t, domain.StepOTP, sess.Step)

	require.NoError(t, svc.Cancel(sess))
	require.Equal(t, domain.StepLogin, sess.Step)
	require.Empty(t, sess.PendingUsername)
}

func TestEventsRejectedOutsideTheirStep(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	sess := domain.NewAuthSession() // LOGIN

	require.ErrorIs(t, svc.SubmitOTP(ctx, sess, "123456"), ErrInvalidState)
	require.ErrorIs(t, svc.ConfirmRegistration(ctx, sess, "123456"), ErrInvalidState)
	require.ErrorIs(t, svc.Logout(ctx, sess), ErrInvalidState)
	require.ErrorIs(t, svc.Cancel(sess), ErrInvalidState)

	_, err := svc.SubmitRegistration(ctx, sess, "alice1", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAuditTrailRecorded(t *testing.T) {
	ctx := context.Background()
	svc, st := newAuthService(t)

	register(t, svc, "alice1", "Abcdef1!")

	sess := domain.NewAuthSession()
	require.NoError(t, svc.SubmitCredentials(ctx, sess, "alice1", "Abcdef1!"))

	u, err := st.Users().GetUserByUsername(ctx, "alice1")
	require.NoError(t, err)
	code, err := totp.GenerateCode(u.TOTPSecret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.SubmitOTP(ctx, sess, code))
	require.NoError(t, svc.Logout(ctx, sess))

	entries, err := st.Logs().ListLogs(ctx, 0)
	require.NoError(t, err)

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
		require.NotContains(t, e.Details, "Abcdef1!", "plaintext must never be logged")
		require.NotContains(t, e.Details, u.TOTPSecret, "secret must never be logged")
	}
	require.Contains(t, actions, domain.ActionUserRegister)
	require.Contains(t, actions, domain.ActionLoginAttempt)
	require.Contains(t, actions, domain.ActionLogin)
	require.Contains(t, actions, domain.ActionLogout)
}
