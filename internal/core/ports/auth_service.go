package ports

import (
	"context"
	"time"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	Role      domain.Role
	ExpiresAt time.Time
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *domain.Claims) error
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}

// TokenIssuer issues and verifies signed tokens.
type TokenIssuer interface {
	Issue(username string, role domain.Role) (string, *domain.Claims, error)
	Verify(token string) (*domain.Claims, error)
}

// RevocationStore remembers logged-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
