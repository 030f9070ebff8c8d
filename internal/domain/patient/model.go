package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. NationalID is the RUT, the stable
// identifier public bookings match on; email is the fallback. Rows are
// soft-deleted so appointment history stays resolvable.
type Patient struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	Phone      string     `db:"phone" json:"phone"`
	NationalID string     `db:"national_id" json:"national_id"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
