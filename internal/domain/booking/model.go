package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical appointment statuses. Earlier data sets spelled pending as
// "to_confirm" and used "rescheduled" as a stored status; both are accepted
// on input and normalized to pending.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusMissed    = "missed"
)

var canonicalStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true, StatusCancelled: true,
	StatusCompleted: true, StatusMissed: true,
}

// NormalizeStatus maps an external status string to the canonical vocabulary.
func NormalizeStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to_confirm", "rescheduled":
		return StatusPending, true
	default:
		norm := strings.ToLower(strings.TrimSpace(s))
		return norm, canonicalStatuses[norm]
	}
}

// Appointment maps to the appointments table. It occupies the half-open
// interval [start_time, start_time + minutes_duration). Rows are never
// deleted, only status-transitioned.
type Appointment struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	ProfessionalID     uuid.UUID `db:"professional_id" json:"professional_id"`
	SpecialtyID        uuid.UUID `db:"specialty_id" json:"specialty_id"`
	StartTime          time.Time `db:"start_time" json:"start_time"`
	MinutesDuration    int       `db:"minutes_duration" json:"minutes_duration"`
	Status             string    `db:"status" json:"status"`
	Notes              *string   `db:"notes" json:"notes,omitempty"`
	CancellationReason *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.MinutesDuration) * time.Minute)
}

// Occupying reports whether this appointment blocks its interval.
func (a *Appointment) Occupying() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// EffectiveStatus applies the time-based auto transition: once start_time has
// passed, a confirmed appointment reads as completed and a pending one as
// missed. The stored row is only rewritten by explicit transitions.
func (a *Appointment) EffectiveStatus(now time.Time) string {
	if now.After(a.StartTime) {
		switch a.Status {
		case StatusConfirmed:
			return StatusCompleted
		case StatusPending:
			return StatusMissed
		}
	}
	return a.Status
}

// CanTransition reports whether an explicit status transition is allowed.
// Cancelled, completed and missed are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}
