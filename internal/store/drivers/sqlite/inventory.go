package sqlite

import (
	"context"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
)

type inventoryRepo struct {
	q querier
}

func (r *inventoryRepo) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, category, quantity, price, description, created_at, updated_at
		FROM inventory
		ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity,
			&it.Price, &it.Description, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *inventoryRepo) GetItemByID(ctx context.Context, id string) (domain.Item, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, price, description, created_at, updated_at
		FROM inventory
		WHERE id = ?`, id)

	var it domain.Item
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity,
		&it.Price, &it.Description, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return domain.Item{}, mapNotFound(err)
	}
	return it, nil
}

func (r *inventoryRepo) CreateItem(ctx context.Context, it domain.Item) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO inventory (id, name, category, quantity, price, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		it.ID, it.Name, it.Category, it.Quantity, it.Price, it.Description)
	return mapConstraint(err)
}

func (r *inventoryRepo) UpdateItem(ctx context.Context, it domain.Item) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE inventory
		SET name = ?, category = ?, quantity = ?, price = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		it.Name, it.Category, it.Quantity, it.Price, it.Description, it.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *inventoryRepo) DeleteItem(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
