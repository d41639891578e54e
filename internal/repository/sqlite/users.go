package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"physioeval/internal/domain"
)

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("user already exists")

// UserStore manages login accounts in the users table. Passwords are stored
// as bcrypt hashes only.
type UserStore struct {
	conn *Conn
	log  zerolog.Logger
	cost int
}

// NewUserStore creates a user store on conn. A cost of 0 uses
// bcrypt.DefaultCost.
func NewUserStore(conn *Conn, cost int, log zerolog.Logger) *UserStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserStore{
		conn: conn,
		log:  log.With().Str("component", "users").Logger(),
		cost: cost,
	}
}

// CreateUser hashes password and stores a new account. An empty role
// defaults to domain.RoleCaregiver.
func (s *UserStore) CreateUser(ctx context.Context, username, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if role == "" {
		role = domain.RoleCaregiver
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var id int64
	err = s.conn.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if exists > 0 {
			return ErrUserExists
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
			username, string(hash), role)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", username).Str("role", role).Msg("user created")
	return s.GetUser(ctx, id)
}

// GetUser returns a user by id, or domain.ErrNotFound.
func (s *UserStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var u domain.User
	var createdAt sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt = nullToString(createdAt)
	return &u, nil
}

// Authenticate checks username and password against the stored hash.
// Returns domain.ErrInvalidCredentials for an unknown user or a wrong
// password.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var u domain.User
	var hash string
	var createdAt sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash, created_at FROM users WHERE username = ?`,
		strings.TrimSpace(username),
	).Scan(&u.ID, &u.Username, &u.Role, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug().Str("username", username).Msg("authentication failed: unknown user")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.log.Debug().Str("username", username).Msg("authentication failed: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	u.CreatedAt = nullToString(createdAt)
	return &u, nil
}

// ListUsers returns all accounts ordered by username.
func (s *UserStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, username, role, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		var createdAt sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = nullToString(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}
