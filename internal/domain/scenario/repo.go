package scenario

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("scenario not found")

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
	ListBySheet(ctx context.Context, sheet string, limit, offset int) ([]*Record, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
