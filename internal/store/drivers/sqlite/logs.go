package sqlite

import (
	"context"

	"github.com/quartermasterhq/quartermaster/internal/domain"
)

type logsRepo struct {
	q querier
}

func (r *logsRepo) AppendLog(ctx context.Context, e domain.LogEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO logs (id, username, action, details, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		e.ID, e.Username, e.Action, e.Details)
	return mapConstraint(err)
}

func (r *logsRepo) ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	query := `
		SELECT id, username, action, details, created_at
		FROM logs
		ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
