package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"physioeval/internal/domain"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(newTestConn(t), bcrypt.MinCost, zerolog.Nop())
}

func TestCreateUser(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, "  lucia ", "s3cret", "")
	assertNoError(t, err)
	assertEqual(t, "lucia", u.Username)
	assertEqual(t, domain.RoleCaregiver, u.Role)
	if u.ID <= 0 {
		t.Fatalf("expected positive id, got %d", u.ID)
	}

	db, err := store.conn.Acquire(ctx)
	assertNoError(t, err)
	var hash string
	assertNoError(t, db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, u.ID).Scan(&hash))
	if hash == "s3cret" {
		t.Fatal("password stored in clear text")
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "lucia", "a", domain.RoleAdmin)
	assertNoError(t, err)

	_, err = store.CreateUser(ctx, "lucia", "b", "")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, " ", "pw", ""); err == nil {
		t.Fatal("expected error for empty username")
	}
	if _, err := store.CreateUser(ctx, "lucia", "", ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestAuthenticate(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "lucia", "s3cret", domain.RoleAdmin)
	assertNoError(t, err)

	u, err := store.Authenticate(ctx, "lucia", "s3cret")
	assertNoError(t, err)
	assertEqual(t, "lucia", u.Username)
	assertEqual(t, domain.RoleAdmin, u.Role)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "lucia", "nope"},
		{"unknown user", "pablo", "s3cret"},
		{"empty password", "lucia", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := store.Authenticate(ctx, tt.username, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			assertNil(t, u)
		})
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestUserStore(t)

	_, err := store.GetUser(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	store := newTestUserStore(t)
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(users))

	for _, name := range []string{"zoe", "ana", "marcos"} {
		_, err := store.CreateUser(ctx, name, "pw", "")
		assertNoError(t, err)
	}

	users, err = store.ListUsers(ctx)
	assertNoError(t, err)
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assertEqual(t, []string{"ana", "marcos", "zoe"}, names)
}
