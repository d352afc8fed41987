package service

import (
	"context"
	"testing"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
	sqlitestore "github.com/quartermasterhq/quartermaster/internal/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newInventoryService(t *testing.T) (*InventoryService, *sqlitestore.Store) {
	t.Helper()

	st, err := sqlitestore.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &InventoryService{
		Store: st,
		Authz: &AuthzService{Store: st},
		Audit: &AuditService{Store: st},
	}, st
}

func TestInventoryCRUD(t *testing.T) {
	ctx := context.Background()
	svc, st := newInventoryService(t)
	seedUser(t, st, "ops-admin", domain.RoleAdmin)

	created, err := svc.Create(ctx, "ops-admin", ItemInput{
		Name:     "label printer",
		Category: "equipment",
		Quantity: 4,
		Price:    129.99,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	updated, err := svc.Update(ctx, "ops-admin", created.ID, ItemInput{
		Name:     "label printer",
		Category: "equipment",
		Quantity: 3,
		Price:    119.99,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), updated.Quantity)

	require.NoError(t, svc.Delete(ctx, "ops-admin", created.ID))

	items, err = svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestInventoryValidation(t *testing.T) {
	ctx := context.Background()
	svc, st := newInventoryService(t)
	seedUser(t, st, "ops-admin", domain.RoleAdmin)

	_, err := svc.Create(ctx, "ops-admin", ItemInput{Name: "   "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "name")

	_, err = svc.Create(ctx, "ops-admin", ItemInput{Name: "widgets", Quantity: -1})
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Reason, "quantity")
}

func TestInventoryMutationsDeniedForUsers(t *testing.T) {
	ctx := context.Background()
	svc, st := newInventoryService(t)
	seedUser(t, st, "ops-admin", domain.RoleAdmin)
	seedUser(t, st, "viewer", domain.RoleUser)

	created, err := svc.Create(ctx, "ops-admin", ItemInput{Name: "widgets", Quantity: 10})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "viewer", ItemInput{Name: "gadgets"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, "viewer", created.ID, ItemInput{Name: "widgets", Quantity: 0})
	require.ErrorIs(t, err, ErrForbidden)

	require.ErrorIs(t, svc.Delete(ctx, "viewer", created.ID), ErrForbidden)
}

func TestInventoryUpdateMissingItem(t *testing.T) {
	ctx := context.Background()
	svc, st := newInventoryService(t)
	seedUser(t, st, "ops-admin", domain.RoleAdmin)

	_, err := svc.Update(ctx, "ops-admin", "no-such-id", ItemInput{Name: "x", Quantity: 1})
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, "ops-admin", "no-such-id"), store.ErrNotFound)
}
