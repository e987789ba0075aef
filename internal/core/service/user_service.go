package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/ports"
)

type createUserInput struct {
	Username string `validate:"required,min=3,max=30,username"`
	Password string `validate:"required,min=6,bcryptlen"`
	Role     string `validate:"oneof=admin user"`
}

type updateUserInput struct {
	Password *string `validate:"omitnil,min=6,bcryptlen"`
	Role     *string `validate:"omitnil,oneof=admin user"`
}

type bootstrapInput struct {
	Password string `validate:"required,min=6,bcryptlen"`
}

// UserService implements account management on top of the credential store.
type UserService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	validate *validator.Validate
	log      zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		validate: newValidator(),
		log:      log,
	}
}

func (s *UserService) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create validates the input, hashes the password and stores the account.
// Duplicates surface as domain.ErrUserExists from the store.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = string(domain.RoleUser)
	}
	if err := validateStruct(s.validate, createUserInput(in)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         domain.Role(in.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// Update changes the password and/or role of the referenced account.
func (s *UserService) Update(ctx context.Context, ref string, in ports.UpdateUserInput) (*domain.User, error) {
	if in.Password == nil && in.Role == nil {
		return nil, domain.NewValidationError("nothing to update: provide password and/or role")
	}
	if err := validateStruct(s.validate, updateUserInput(in)); err != nil {
		return nil, err
	}

	target, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	var update domain.UserUpdate
	if in.Role != nil {
		role := domain.Role(*in.Role)
		if target.Username == domain.BootstrapAdminUsername && role != domain.RoleAdmin {
			return nil, fmt.Errorf("cannot change the role of %q: %w", target.Username, domain.ErrProtectedAccount)
		}
		update.Role = &role
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, target.ID, update)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().
		Str("username", updated.Username).
		Bool("password_changed", update.PasswordHash != nil).
		Bool("role_changed", update.Role != nil).
		Msg("user updated")
	return updated, nil
}

// Delete removes the referenced account. The bootstrap admin and the
// caller's own account are refused before the store is touched.
func (s *UserService) Delete(ctx context.Context, actor *domain.Claims, ref string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if err := checkDeletable(actor, ref); err != nil {
		return err
	}

	target, err := s.resolve(ctx, ref)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := checkDeletable(actor, target.Username); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, target.Username); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Str("username", target.Username).Str("by", actor.Username).Msg("user deleted")
	return nil
}

// Bootstrap seeds the bootstrap admin if it does not exist yet.
func (s *UserService) Bootstrap(ctx context.Context, password string) error {
	if err := validateStruct(s.validate, bootstrapInput{Password: password}); err != nil {
		return fmt.Errorf("bootstrap admin password: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: hash password: %w", err)
	}

	created, err := s.repo.EnsureBootstrapAdmin(ctx, hash)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		s.log.Info().Str("username", domain.BootstrapAdminUsername).Msg("bootstrap admin created")
	}
	return nil
}

// resolve looks ref up as a username first and as a numeric id second.
func (s *UserService) resolve(ctx context.Context, ref string) (*domain.User, error) {
	if ref == "" {
		return nil, domain.NewValidationError("user reference is required")
	}

	user, err := s.repo.FindByUsername(ctx, ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	id, convErr := strconv.ParseInt(ref, 10, 64)
	if convErr != nil || id <= 0 {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func checkDeletable(actor *domain.Claims, username string) error {
	switch username {
	case domain.BootstrapAdminUsername:
		return fmt.Errorf("cannot delete %q: %w", username, domain.ErrProtectedAccount)
	case actor.Username:
		return fmt.Errorf("cannot delete your own account: %w", domain.ErrProtectedAccount)
	}
	return nil
}
