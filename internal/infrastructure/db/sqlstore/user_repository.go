package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

const pgUniqueViolation = "23505"

// UserRepository implements ports.UserRepository on database/sql.
type UserRepository struct {
	db *sql.DB
	d  dialect
}

func NewUserRepository(db *sql.DB, driver Driver) *UserRepository {
	if driver == "" {
		driver = DriverSQLite
	}
	return &UserRepository{db: db, d: dialect{driver: driver}}
}

// Migrate creates the users table if needed.
func (r *UserRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.d.schema()); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !user.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	now := time.Now().UTC()
	created := *user
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = now
	}

	err := r.db.QueryRowContext(ctx, r.d.rebind(
		`INSERT INTO users (username, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		created.Username, created.PasswordHash, string(created.Role), created.CreatedAt, created.UpdatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE username = ?`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, `WHERE id = ?`, id)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRowContext(ctx, r.d.rebind(
		`SELECT id, username, password_hash, role, created_at, updated_at FROM users `+where), arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserSummary, 0)
	for rows.Next() {
		var (
			s    domain.UserSummary
			role string
		)
		if err := rows.Scan(&s.ID, &s.Username, &role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		s.Role = domain.Role(role)
		users = append(users, s)
	}
	return users, rows.Err()
}

// Update applies a partial update in a single statement.
func (r *UserRepository) Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	if update.Empty() {
		return r.FindByID(ctx, id)
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if update.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, domain.ErrInvalidRole
		}
		sets = append(sets, "role = ?")
		args = append(args, string(*update.Role))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.d.rebind(
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, r.d.rebind(`DELETE FROM users WHERE username = ?`), username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureBootstrapAdmin relies on the username constraint: a concurrent or
// repeated call inserts nothing.
func (r *UserRepository) EnsureBootstrapAdmin(ctx context.Context, passwordHash string) (bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.d.rebind(
		`INSERT INTO users (username, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT (username) DO NOTHING`),
		domain.BootstrapAdminUsername, passwordHash, string(domain.RoleAdmin), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("seed bootstrap admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed bootstrap admin: %w", err)
	}
	return n == 1, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}
