package store

import (
	"context"
	"errors"

	"github.com/quartermasterhq/quartermaster/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Inventory() Inventory
	Logs() Logs

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByUsername returns a user record or ErrNotFound. Usernames are
	// globally unique.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. The unique index on username is the
	// authority on collisions: a duplicate insert returns ErrAlreadyExists
	// regardless of any earlier availability check.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserRole changes a user's role and bumps updated_at.
	UpdateUserRole(ctx context.Context, username string, role domain.Role) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Inventory interface {
	// ListItems returns all inventory items, newest first.
	ListItems(ctx context.Context) ([]domain.Item, error)

	// GetItemByID returns a single item or ErrNotFound.
	GetItemByID(ctx context.Context, id string) (domain.Item, error)

	// CreateItem inserts a new item (id is provided by app via ULID).
	CreateItem(ctx context.Context, it domain.Item) error

	// UpdateItem replaces all mutable fields of an item.
	UpdateItem(ctx context.Context, it domain.Item) error

	// DeleteItem removes an item. Deleting a missing item is ErrNotFound.
	DeleteItem(ctx context.Context, id string) error
}

type Logs interface {
	// AppendLog stores one activity-log entry.
	AppendLog(ctx context.Context, e domain.LogEntry) error

	// ListLogs returns entries newest first, up to limit (0 means no limit).
	ListLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)
}
