package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

// User is a staff account. Its Role never changes after creation.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	ContactInfo  string    `db:"contact_info" json:"contactInfo"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Summary is the projection of a user shown next to the meals they handle.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactInfo string    `json:"contactInfo"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, ContactInfo: u.ContactInfo}
}
