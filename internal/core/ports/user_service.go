package ports

import (
	"context"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// CreateUserInput is the DTO passed from the transport layer to UserService.
type CreateUserInput struct {
	Username string
	Password string
	Role     string // empty means domain.RoleUser
}

// UpdateUserInput carries optional fields; nil leaves the field unchanged.
type UpdateUserInput struct {
	Password *string
	Role     *string
}

// UserService is the admin-facing account management use case. Callers are
// expected to have passed the RBAC gate; actor is still needed for the
// self-deletion rule.
type UserService interface {
	List(ctx context.Context) ([]domain.UserSummary, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	// Update and Delete take a reference that is either a username or a
	// numeric id.
	Update(ctx context.Context, ref string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.Claims, ref string) error
	Bootstrap(ctx context.Context, password string) error
}
