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

// UserService covers administrative account management. Self-service
// registration lives in AuthService; this path is for admins creating
// accounts directly, including other admins.
type UserService struct {
	Store  store.Store
	Authz  *AuthzService
	Audit  *AuditService
	Issuer string
}

// CreateUser creates an account on behalf of actor, who must hold the
// users.create permission at the store (not in a cached session). The
// returned Enrollment is the only time the new account's TOTP secret leaves
// the server.
func (s *UserService) CreateUser(ctx context.Context, actor, username, password string, role domain.Role) (Enrollment, error) {
	if err := s.Authz.Authorize(ctx, actor, ActionUsersCreate); err != nil {
		return Enrollment{}, err
	}

	if _, ok := domain.ParseRole(string(role)); !ok {
		return Enrollment{}, &ValidationError{Reason: "role must be admin or user"}
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
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return Enrollment{}, ErrUsernameTaken
		}
		return Enrollment{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.Audit.Record(ctx, actor, domain.ActionUserCreate,
		fmt.Sprintf("created account %q with role %s", username, role))

	uri := totpx.ProvisioningURI(s.Issuer, username, secret)
	qr, err := totpx.RenderQR(uri, QRSize)
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to render enrollment QR: %w", err)
	}
	return Enrollment{Secret: secret, URI: uri, QRPNG: qr}, nil
}
