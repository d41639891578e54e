package repository

import (
	"context"

	"physioeval/internal/domain"
)

// Repository defines the interface for evaluation data access
type Repository interface {
	// Write operations. Each call is one transaction over the whole
	// aggregate.
	Create(ctx context.Context, e *domain.Evaluation) (int64, error)
	Replace(ctx context.Context, id int64, e *domain.Evaluation) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// Read operations
	Find(ctx context.Context, id int64) (*domain.Evaluation, error)
	List(ctx context.Context, q domain.ListQuery) ([]domain.Summary, error)
	Count(ctx context.Context, filter string) (int, error)

	// Close releases resources
	Close() error
}

// UserRepository defines the interface for login accounts
type UserRepository interface {
	CreateUser(ctx context.Context, username, password, role string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
