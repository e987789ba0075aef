package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/ports"
)

// AuthService implements login, logout and token authentication.
type AuthService struct {
	repo        ports.UserRepository
	hasher      ports.PasswordHasher
	issuer      ports.TokenIssuer
	revocations ports.RevocationStore
	log         zerolog.Logger

	// dummyHash is compared against when the username is unknown so that a
	// miss costs about as much as a wrong password.
	dummyHash string
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	revocations ports.RevocationStore,
	log zerolog.Logger,
) *AuthService {
	dummy, err := hasher.Hash("timing-equaliser")
	if err != nil {
		log.Warn().Err(err).Msg("could not prepare dummy hash")
	}
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		issuer:      issuer,
		revocations: revocations,
		log:         log,
		dummyHash:   dummy,
	}
}

// Login checks the credentials and issues a token. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user logged in")

	return &ports.LoginResult{Token: token, Role: user.Role, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes the caller's token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *domain.Claims) error {
	if claims == nil || claims.TokenID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("username", claims.Username).Msg("user logged out")
	return nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	return claims, nil
}
