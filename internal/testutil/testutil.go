package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// TestSecret signs tokens in tests.
const TestSecret = "test-secret"

var dbSeq atomic.Int64

// OpenSQLite opens a private in-memory SQLite database with the users table migrated.
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	store, err := persistence.NewSQLite(dsn, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(store.Close)

	if err := repository.MigrateGorm(store.DB); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return store.DB
}

// NewUserRepository returns a repository over a fresh in-memory database.
func NewUserRepository(t *testing.T) repository.UserRepository {
	t.Helper()
	return repository.NewGormUserRepository(OpenSQLite(t))
}

// SeedUser stores a user with the given role and password.
func SeedUser(t *testing.T, users repository.UserRepository, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}
