package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

// newTestRepo opens a file-backed SQLite database so that concurrent tests
// exercise real locking across pooled connections.
func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(db, DriverSQLite)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func newUser(username string, role domain.Role) *domain.User {
	return &domain.User{Username: username, PasswordHash: "hash-" + username, Role: role}
}

func TestRebind(t *testing.T) {
	pg := dialect{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM users WHERE id = $1 AND role = $2",
		pg.rebind("SELECT * FROM users WHERE id = ? AND role = ?"))

	lite := dialect{driver: DriverSQLite}
	assert.Equal(t, "DELETE FROM users WHERE username = ?",
		lite.rebind("DELETE FROM users WHERE username = ?"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestUserCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Create
	created, err := repo.Create(ctx, newUser("alice", domain.RoleUser))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "alice", created.Username)

	// FindByUsername / FindByID
	byName, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "hash-alice", byName.PasswordHash)
	assert.Equal(t, domain.RoleUser, byName.Role)
	assert.WithinDuration(t, time.Now(), byName.CreatedAt, time.Minute)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	// Update role only
	admin := domain.RoleAdmin
	updated, err := repo.Update(ctx, created.ID, domain.UserUpdate{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, "hash-alice", updated.PasswordHash)

	// Update password only
	hash := "rotated"
	updated, err = repo.Update(ctx, created.ID, domain.UserUpdate{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "rotated", updated.PasswordHash)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	// List
	_, err = repo.Create(ctx, newUser("bob", domain.RoleUser))
	require.NoError(t, err)
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)

	// Delete
	require.NoError(t, repo.Delete(ctx, "bob"))
	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	role := domain.RoleUser
	_, err = repo.Update(ctx, 42, domain.UserUpdate{Role: &role})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "ghost"), domain.ErrUserNotFound)
}

func TestDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("carol", domain.RoleUser))
	require.NoError(t, err)

	dup := newUser("carol", domain.RoleAdmin)
	dup.PasswordHash = "other"
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrUserExists)

	original, err := repo.FindByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "hash-carol", original.PasswordHash)
	assert.Equal(t, domain.RoleUser, original.Role)
}

func TestConcurrentDuplicateCreate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 6
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, newUser("racer", domain.RoleUser))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrUserExists)
	}
	assert.Equal(t, 1, successes)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInvalidRoleRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("dave", domain.Role("owner")))
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	created, err := repo.Create(ctx, newUser("erin", domain.RoleUser))
	require.NoError(t, err)
	bad := domain.Role("root")
	_, err = repo.Update(ctx, created.ID, domain.UserUpdate{Role: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	// The CHECK constraint backs up the application check.
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at, updated_at) VALUES ('frank', 'x', 'root', ?, ?)`,
		time.Now(), time.Now())
	assert.Error(t, err)
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.EnsureBootstrapAdmin(ctx, "first-hash")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureBootstrapAdmin(ctx, "second-hash")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := repo.FindByUsername(ctx, domain.BootstrapAdminUsername)
	require.NoError(t, err)
	assert.Equal(t, "first-hash", admin.PasswordHash)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListDoesNotExposeHashes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("gina", domain.RoleUser))
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.UserSummary{ID: list[0].ID, Username: "gina", Role: domain.RoleUser}, list[0])
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewUserRepository(db, DriverPostgres)
	require.NoError(t, repo.Migrate(ctx))
	_, _ = db.ExecContext(ctx, `DELETE FROM users WHERE username = 'pg-user'`)

	created, err := repo.Create(ctx, newUser("pg-user", domain.RoleUser))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newUser("pg-user", domain.RoleUser))
	assert.ErrorIs(t, err, domain.ErrUserExists)
	require.NoError(t, repo.Delete(ctx, created.Username))
}
