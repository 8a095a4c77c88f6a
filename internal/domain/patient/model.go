package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/meal"
)

type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Diseases         string    `db:"diseases" json:"diseases"`
	Allergies        string    `db:"allergies" json:"allergies"`
	RoomNumber       string    `db:"room_number" json:"roomNumber"`
	BedNumber        string    `db:"bed_number" json:"bedNumber"`
	FloorNumber      int       `db:"floor_number" json:"floorNumber"`
	Age              int       `db:"age" json:"age"`
	Gender           string    `db:"gender" json:"gender"`
	ContactInfo      string    `db:"contact_info" json:"contactInfo"`
	EmergencyContact string    `db:"emergency_contact" json:"emergencyContact"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// WithPlan is a patient together with the current diet plan, if any.
type WithPlan struct {
	Patient
	DietPlan *meal.PlanView `json:"dietPlan"`
}

// Input carries the fields of a create or partial update. On create the
// demographic and location fields are required; on update nil means unchanged.
type Input struct {
	Name             *string `json:"name"`
	Diseases         *string `json:"diseases"`
	Allergies        *string `json:"allergies"`
	RoomNumber       *string `json:"roomNumber"`
	BedNumber        *string `json:"bedNumber"`
	FloorNumber      *int    `json:"floorNumber"`
	Age              *int    `json:"age"`
	Gender           *string `json:"gender"`
	ContactInfo      *string `json:"contactInfo"`
	EmergencyContact *string `json:"emergencyContact"`
}
