package meal

import (
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
)

type MealType string

const (
	Morning MealType = "Morning"
	Evening MealType = "Evening"
	Night   MealType = "Night"
)

// MealTypes lists the three daily slots in serving order.
var MealTypes = []MealType{Morning, Evening, Night}

var validMealTypes = map[MealType]bool{Morning: true, Evening: true, Night: true}

func ParseMealType(s string) (MealType, bool) {
	mt := MealType(s)
	return mt, validMealTypes[mt]
}

type PreparationStatus string

const (
	PreparationPending    PreparationStatus = "Pending"
	PreparationInProgress PreparationStatus = "InProgress"
	PreparationCompleted  PreparationStatus = "Completed"
)

var validPreparationStatuses = map[PreparationStatus]bool{
	PreparationPending: true, PreparationInProgress: true, PreparationCompleted: true,
}

func ParsePreparationStatus(s string) (PreparationStatus, bool) {
	ps := PreparationStatus(s)
	return ps, validPreparationStatuses[ps]
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "Pending"
	DeliveryDelivered DeliveryStatus = "Delivered"
)

var validDeliveryStatuses = map[DeliveryStatus]bool{DeliveryPending: true, DeliveryDelivered: true}

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	ds := DeliveryStatus(s)
	return ds, validDeliveryStatuses[ds]
}

// MealSlot is one prepared-and-delivered meal. Reassigning a meal type
// creates a new slot; the superseded one stays in the patient's history.
type MealSlot struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	PatientID           uuid.UUID         `db:"patient_id" json:"patientId"`
	MealType            MealType          `db:"meal_type" json:"mealType"`
	Ingredients         string            `db:"ingredients" json:"ingredients"`
	Instructions        string            `db:"instructions" json:"instructions"`
	PreparationStatus   PreparationStatus `db:"preparation_status" json:"preparationStatus"`
	DeliveryStatus      DeliveryStatus    `db:"delivery_status" json:"deliveryStatus"`
	PantryStaffID       uuid.UUID         `db:"pantry_staff_id" json:"pantryStaffId"`
	DeliveryPersonnelID *uuid.UUID        `db:"delivery_personnel_id" json:"deliveryPersonnelId"`
	DeliveredAt         *time.Time        `db:"delivered_at" json:"deliveredAt"`
	DeliveryNotes       string            `db:"delivery_notes" json:"deliveryNotes"`
	CreatedAt           time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updatedAt"`
}

func (m *MealSlot) IsDelivered() bool { return m.DeliveryStatus == DeliveryDelivered }

// DietPlan binds a patient to at most one current slot per meal type.
type DietPlan struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	MorningMealID *uuid.UUID `db:"morning_meal_id" json:"morningMealId"`
	EveningMealID *uuid.UUID `db:"evening_meal_id" json:"eveningMealId"`
	NightMealID   *uuid.UUID `db:"night_meal_id" json:"nightMealId"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// SlotID returns the current slot for mt, or nil.
func (p *DietPlan) SlotID(mt MealType) *uuid.UUID {
	switch mt {
	case Morning:
		return p.MorningMealID
	case Evening:
		return p.EveningMealID
	case Night:
		return p.NightMealID
	}
	return nil
}

// SetSlot points mt at slotID.
func (p *DietPlan) SetSlot(mt MealType, slotID uuid.UUID) {
	id := slotID
	switch mt {
	case Morning:
		p.MorningMealID = &id
	case Evening:
		p.EveningMealID = &id
	case Night:
		p.NightMealID = &id
	}
}

func (p *DietPlan) slotIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, mt := range MealTypes {
		if id := p.SlotID(mt); id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// SlotView is a slot with its staff expanded.
type SlotView struct {
	MealSlot
	PantryStaff       *staff.Summary `json:"pantryStaff,omitempty"`
	DeliveryPersonnel *staff.Summary `json:"deliveryPersonnel,omitempty"`
}

// PlanView is a diet plan with its three current slots expanded.
type PlanView struct {
	DietPlan
	MorningMeal *SlotView `json:"morningMeal"`
	EveningMeal *SlotView `json:"eveningMeal"`
	NightMeal   *SlotView `json:"nightMeal"`
}
