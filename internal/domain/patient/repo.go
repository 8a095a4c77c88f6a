package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// ListByPantryStaff returns patients whose current plan has a slot
	// prepared by staffID.
	ListByPantryStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	// ListByDeliveryPersonnel returns patients whose current plan has a slot
	// delivered by staffID.
	ListByDeliveryPersonnel(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error)
}
