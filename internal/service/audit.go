package service

import (
	"context"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/pkg/idx"
	"github.com/quartermasterhq/quartermaster/pkg/slogx"
)

// AuditService appends activity-log entries. The sink is fire-and-forget: a
// failed append is logged as a warning and never aborts the operation that
// produced it.
type AuditService struct {
	Store store.Store
}

// Record appends one entry. Details must never contain passwords or TOTP
// secrets.
func (s *AuditService) Record(ctx context.Context, username, action, details string) {
	err := s.Store.Logs().AppendLog(ctx, domain.LogEntry{
		ID:       idx.New().String(),
		Username: username,
		Action:   action,
		Details:  details,
	})
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to append activity log",
			"username", username,
			"action", action,
			"err", err,
		)
	}
}

// List returns entries newest first, up to limit (0 means no limit).
func (s *AuditService) List(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	return s.Store.Logs().ListLogs(ctx, limit)
}
