package meal

import (
	"context"

	"github.com/google/uuid"
)

type SlotRepository interface {
	Create(ctx context.Context, m *MealSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*MealSlot, error)
	// GetForUpdate locks the row for the rest of the enclosing transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*MealSlot, error)
	Update(ctx context.Context, m *MealSlot) error
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*MealSlot, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*MealSlot, error)
}

type PlanRepository interface {
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*DietPlan, error)
	ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]*DietPlan, error)
	// AttachSlot points the patient's plan at slotID for mt, creating the
	// plan when the patient has none.
	AttachSlot(ctx context.Context, patientID uuid.UUID, mt MealType, slotID uuid.UUID) (*DietPlan, error)
}
