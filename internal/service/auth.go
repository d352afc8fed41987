package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/pkg/cryptox"
	"github.com/quartermasterhq/quartermaster/pkg/idx"
	"github.com/quartermasterhq/quartermaster/pkg/policy"
	"github.com/quartermasterhq/quartermaster/pkg/totpx"
)

// QRSize is the pixel width and height of rendered enrollment QR codes.
const QRSize = 250

// Enrollment carries the secret material handed to the client exactly once,
// at registration or admin creation. It must never be logged or re-rendered
// afterwards.
type Enrollment struct {
	Secret string
	URI    string
	QRPNG  []byte
}

// AuthService drives the per-session authentication state machine over an
// explicit AuthSession value. Each event method validates the current step,
// applies the transition table and returns a typed error when a guard fails.
// A failed guard leaves the step unchanged unless the table says otherwise.
//
// Neither OTP nor credential attempts are limited here; that matches the
// behaviour this service replaces. Transport-level rate limiting is applied
// by the HTTP layer.
type AuthService struct {
	Store  store.Store
	Audit  *AuditService
	Issuer string
}

// SubmitCredentials handles the password step (LOGIN -> OTP).
//
// Unknown usernames and wrong passwords produce the same generic error.
// Oversized passwords are rejected before any store lookup or hashing work.
func (s *AuthService) SubmitCredentials(ctx context.Context, sess *domain.AuthSession, username, password string) error {
	if sess.Step != domain.StepLogin {
		return ErrInvalidState
	}

	if len(password) > cryptox.MaxPasswordBytes {
		return cryptox.ErrPasswordTooLong
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	sess.Step = domain.StepOTP
	sess.PendingUsername = u.Username
	s.Audit.Record(ctx, u.Username, domain.ActionLoginAttempt, "password accepted, awaiting OTP")
	return nil
}

// StartRegistration moves LOGIN -> REGISTER. No guard.
func (s *AuthService) StartRegistration(sess *domain.AuthSession) error {
	if sess.Step != domain.StepLogin {
		return ErrInvalidState
	}
	sess.Step = domain.StepRegister
	return nil
}

// SubmitRegistration handles a new-account submission (REGISTER ->
// REGISTER_OTP). On success it generates the TOTP secret, stashes the
// pending registration (plaintext password held only in memory) and returns
// the enrollment material for QR display. Validation failures surface their
// specific reason and leave the step unchanged.
func (s *AuthService) SubmitRegistration(ctx context.Context, sess *domain.AuthSession, username, password string) (Enrollment, error) {
	if sess.Step != domain.StepRegister {
		return Enrollment{}, ErrInvalidState
	}

	if res := policy.ValidateUsername(username); !res.OK {
		return Enrollment{}, &ValidationError{Reason: res.Reason}
	}
	if res := policy.ValidatePassword(password); !res.OK {
		return Enrollment{}, &ValidationError{Reason: res.Reason}
	}

	// Early availability check for a friendly error. The unique index at
	// insert time remains the authority; see ConfirmRegistration.
	_, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return Enrollment{}, ErrUsernameTaken
	case errors.Is(err, store.ErrNotFound):
		// available
	default:
		return Enrollment{}, fmt.Errorf("failed to check username availability: %w", err)
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	enrollment, err := s.buildEnrollment(username, secret)
	if err != nil {
		return Enrollment{}, err
	}

	sess.Step = domain.StepRegisterOTP
	sess.PendingRegistration = &domain.PendingRegistration{
		Username:   username,
		Password:   password,
		TOTPSecret: secret,
		Role:       domain.RoleUser,
	}
	return enrollment, nil
}

// ConfirmRegistration handles the enrollment OTP (REGISTER_OTP -> LOGIN).
//
// The password is hashed fresh on every attempt rather than cached across
// retries, so a corrected resubmission never reuses a stale hash. Store
// failures, including a username uniqueness race lost after validation,
// leave the session in REGISTER_OTP for retry.
func (s *AuthService) ConfirmRegistration(ctx context.Context, sess *domain.AuthSession, code string) error {
	if sess.Step != domain.StepRegisterOTP || sess.PendingRegistration == nil {
		return ErrInvalidState
	}
	pending := sess.PendingRegistration

	if !totpx.Verify(pending.TOTPSecret, code) {
		return ErrInvalidOTPCode
	}

	hash, err := cryptox.HashPassword(pending.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Username:     pending.Username,
		PasswordHash: hash,
		TOTPSecret:   pending.TOTPSecret,
		Role:         pending.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	username := pending.Username
	pending.Wipe()
	sess.PendingRegistration = nil
	sess.Step = domain.StepLogin

	s.Audit.Record(ctx, username, domain.ActionUserRegister, "account registered")
	return nil
}

// SubmitOTP handles the login second factor (OTP -> DASHBOARD). The stored
// secret is re-read from the user record; a failed code leaves the pending
// username in place so the client may retry.
func (s *AuthService) SubmitOTP(ctx context.Context, sess *domain.AuthSession, code string) error {
	if sess.Step != domain.StepOTP || sess.PendingUsername == "" {
		return ErrInvalidState
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, sess.PendingUsername)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Account vanished between the password and OTP steps.
			sess.Reset()
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !totpx.Verify(u.TOTPSecret, code) {
		return ErrInvalidOTPCode
	}

	sess.Step = domain.StepDashboard
	sess.Authenticated = true
	sess.Username = u.Username
	sess.Role = u.Role
	sess.PendingUsername = ""

	s.Audit.Record(ctx, u.Username, domain.ActionLogin, "second factor accepted")
	return nil
}

// Cancel abandons an in-flight login or registration and returns to LOGIN,
// discarding pending fields. Valid from REGISTER, REGISTER_OTP and OTP.
func (s *AuthService) Cancel(sess *domain.AuthSession) error {
	switch sess.Step {
	case domain.StepRegister, domain.StepRegisterOTP, domain.StepOTP:
		sess.Reset()
		return nil
	default:
		return ErrInvalidState
	}
}

// Logout exits DASHBOARD, clears all session fields and records the event.
func (s *AuthService) Logout(ctx context.Context, sess *domain.AuthSession) error {
	if sess.Step != domain.StepDashboard {
		return ErrInvalidState
	}
	username := sess.Username
	sess.Reset()
	s.Audit.Record(ctx, username, domain.ActionLogout, "")
	return nil
}

func (s *AuthService) buildEnrollment(username, secret string) (Enrollment, error) {
	uri := totpx.ProvisioningURI(s.Issuer, username, secret)
	qr, err := totpx.RenderQR(uri, QRSize)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to render enrollment QR: %w", err)
	}
	return Enrollment{Secret: secret, URI: uri, QRPNG: qr}, nil
}
