package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*User, error)
}
