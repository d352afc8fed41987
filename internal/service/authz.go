package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
)

// Action names an operation subject to authorization.
type Action string

const (
	ActionInventoryRead   Action = "inventory.read"
	ActionInventoryCreate Action = "inventory.create"
	ActionInventoryUpdate Action = "inventory.update"
	ActionInventoryDelete Action = "inventory.delete"
	ActionUsersCreate     Action = "users.create"
	ActionLogsRead        Action = "logs.read"
)

// rolePermissions is the full role to action table. Admins get everything;
// plain users get read-only inventory access.
var rolePermissions = map[domain.Role]map[Action]bool{
	domain.RoleAdmin: {
		ActionInventoryRead:   true,
		ActionInventoryCreate: true,
		ActionInventoryUpdate: true,
		ActionInventoryDelete: true,
		ActionUsersCreate:     true,
		ActionLogsRead:        true,
	},
	domain.RoleUser: {
		ActionInventoryRead: true,
	},
}

// IsPermitted reports whether role may perform action. Pure lookup, no I/O.
func IsPermitted(role domain.Role, action Action) bool {
	return rolePermissions[role][action]
}

// AuthzService enforces role checks at the operation layer. UI-level
// disablement of controls is a hint only; this is the boundary that counts.
type AuthzService struct {
	Store store.Store
}

// Authorize re-reads the caller's record and checks the stored role, not a
// session-cached one. A role demoted mid-session therefore takes effect on
// the caller's next guarded operation.
func (s *AuthzService) Authorize(ctx context.Context, username string, action Action) error {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("failed to load user for authorization: %w", err)
	}

	if !IsPermitted(u.Role, action) {
		return ErrForbidden
	}
	return nil
}
