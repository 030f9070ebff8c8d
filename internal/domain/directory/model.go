package directory

import (
	"time"

	"github.com/google/uuid"
)

// Professional maps to the professionals table. Professionals double as
// staff accounts: the password hash and role drive login and visibility.
// Soft-deleted via the active flag so appointment history stays resolvable.
type Professional struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Specialty maps to the specialties table. DurationMinutes is the fixed
// length of every appointment for the specialty.
type Specialty struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           float64   `db:"price" json:"price"`
	Color           string    `db:"color" json:"color"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultColor is applied when a specialty is created without one.
const DefaultColor = "#1976d2"

// Assignment links a professional to a specialty they attend, with the
// per-pair terms-and-conditions text the professional must accept before
// the pair becomes bookable.
type Assignment struct {
	ProfessionalID     uuid.UUID `db:"professional_id" json:"professional_id"`
	SpecialtyID        uuid.UUID `db:"specialty_id" json:"specialty_id"`
	TermsAndConditions *string   `db:"terms_and_conditions" json:"terms_and_conditions,omitempty"`
	HasTerms           bool      `db:"has_terms" json:"has_terms"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// AssignedSpecialty is the joined view of an assignment and its specialty,
// used by professional detail responses and the pending-terms report.
type AssignedSpecialty struct {
	Specialty
	HasTerms           bool    `json:"has_terms"`
	IsActive           bool    `json:"is_active"`
	TermsAndConditions *string `json:"terms_and_conditions,omitempty"`
}
