package ports

import (
	"context"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// UserRepository is the credential store. Implementations enforce username
// uniqueness with a storage constraint and report it as domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// List never exposes password hashes.
	List(ctx context.Context) ([]domain.UserSummary, error)
	Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, username string) error
	// EnsureBootstrapAdmin inserts the bootstrap admin if absent and never
	// touches an existing row. It reports whether a row was created.
	EnsureBootstrapAdmin(ctx context.Context, passwordHash string) (bool, error)
	Ping(ctx context.Context) error
}
