package streams

import "time"

const SchemaVersionV1 = "1"

// Meal event types.
const (
	EventMealAssigned         = "meal.assigned"
	EventMealStatusChanged    = "meal.status_changed"
	EventDeliveryPersonnelSet = "meal.delivery_personnel_assigned"
)

// MealEvent describes a committed change to a meal slot.
type MealEvent struct {
	Type                string    `json:"type"`
	MealID              string    `json:"meal_id"`
	PatientID           string    `json:"patient_id"`
	MealType            string    `json:"meal_type"`
	PreparationStatus   string    `json:"preparation_status"`
	DeliveryStatus      string    `json:"delivery_status"`
	PantryStaffID       string    `json:"pantry_staff_id,omitempty"`
	DeliveryPersonnelID string    `json:"delivery_personnel_id,omitempty"`
	ActorID             string    `json:"actor_id"`
	ActorRole           string    `json:"actor_role"`
	OccurredAt          time.Time `json:"occurred_at"`
}
