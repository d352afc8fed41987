package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/pkg/idx"
)

// Store lookup failures (store.ErrNotFound) pass through unchanged so the
// transport layer can map them to 404s.

// InventoryService implements the inventory operations. Every mutation is
// re-authorized against the stored role of the acting user before touching
// the inventory table.
type InventoryService struct {
	Store store.Store
	Authz *AuthzService
	Audit *AuditService
}

// ItemInput is the mutable portion of an inventory item.
type ItemInput struct {
	Name        string
	Category    string
	Quantity    int64
	Price       float64
	Description string
}

func (in ItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Reason: "item name is required"}
	}
	if in.Quantity < 0 {
		return &ValidationError{Reason: "quantity cannot be negative"}
	}
	if in.Price < 0 {
		return &ValidationError{Reason: "price cannot be negative"}
	}
	return nil
}

// List returns all items. Read access is granted to every authenticated
// role, so no store re-check is needed here.
func (s *InventoryService) List(ctx context.Context) ([]domain.Item, error) {
	return s.Store.Inventory().ListItems(ctx)
}

// Create adds an item on behalf of actor.
func (s *InventoryService) Create(ctx context.Context, actor string, in ItemInput) (domain.Item, error) {
	if err := s.Authz.Authorize(ctx, actor, ActionInventoryCreate); err != nil {
		return domain.Item{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Item{}, err
	}

	it := domain.Item{
		ID:          idx.New().String(),
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
	}
	if err := s.Store.Inventory().CreateItem(ctx, it); err != nil {
		return domain.Item{}, fmt.Errorf("failed to create item: %w", err)
	}

	s.Audit.Record(ctx, actor, domain.ActionItemCreate, fmt.Sprintf("added %q", it.Name))
	return it, nil
}

// Update replaces the mutable fields of an existing item.
func (s *InventoryService) Update(ctx context.Context, actor, id string, in ItemInput) (domain.Item, error) {
	if err := s.Authz.Authorize(ctx, actor, ActionInventoryUpdate); err != nil {
		return domain.Item{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Item{}, err
	}

	it := domain.Item{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
	}
	if err := s.Store.Inventory().UpdateItem(ctx, it); err != nil {
		return domain.Item{}, err
	}

	s.Audit.Record(ctx, actor, domain.ActionItemUpdate, fmt.Sprintf("updated %q", it.Name))
	return s.Store.Inventory().GetItemByID(ctx, id)
}

// Delete removes an item.
func (s *InventoryService) Delete(ctx context.Context, actor, id string) error {
	if err := s.Authz.Authorize(ctx, actor, ActionInventoryDelete); err != nil {
		return err
	}

	if err := s.Store.Inventory().DeleteItem(ctx, id); err != nil {
		return err
	}

	s.Audit.Record(ctx, actor, domain.ActionItemDelete, fmt.Sprintf("deleted item %s", id))
	return nil
}
