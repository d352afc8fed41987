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

var ErrBootstrapAlready = errors.New("system already has users")

// BootstrapService seeds the very first admin account. Every later admin is
// created by an existing one through UserService; without this seed a fresh
// deployment would have no account able to do that.
type BootstrapService struct {
	Store  store.Store
	Audit  *AuditService
	Issuer string
}

// EnsureAdmin creates the initial admin iff the users table is empty. The
// returned Enrollment is the only time the seed account's TOTP secret leaves
// the process; the caller decides how to hand it to the operator.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, username, password string) (Enrollment, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to check for existing users: %w", err)
	}
	if !empty {
		return Enrollment{}, ErrBootstrapAlready
	}

	if res := policy.ValidateUsername(username); !res.OK {
		return Enrollment{}, &ValidationError{Reason: res.Reason}
	}
	if res := policy.ValidatePassword(password); !res.OK {
		return Enrollment{}, &ValidationError{Reason: res.Reason}
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		TOTPSecret:   secret,
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		// A concurrent boot may have won the race for the first insert.
		if errors.Is(err, store.ErrAlreadyExists) {
			return Enrollment{}, ErrBootstrapAlready
		}
		return Enrollment{}, fmt.Errorf("failed to create admin user: %w", err)
	}

	uri := totpx.ProvisioningURI(s.Issuer, username, secret)
	qr, err := totpx.RenderQR(uri, QRSize)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to render enrollment QR: %w", err)
	}

	s.Audit.Record(ctx, username, domain.ActionUserCreate, "initial admin bootstrapped")
	return Enrollment{Secret: secret, URI: uri, QRPNG: qr}, nil
}
