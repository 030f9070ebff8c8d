package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a booking failure so handlers can pick the right HTTP
// status and payload without string matching.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindSlotUnavailable  Kind = "slot_unavailable"
	KindDuplicateBooking Kind = "duplicate_booking"
	KindInternal         Kind = "internal"
)

// AppointmentRef is the conflicting-appointment summary surfaced on a
// duplicate-booking rejection.
type AppointmentRef struct {
	ID     uuid.UUID `json:"id"`
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// Error is the failure type returned by the booking service. SlotUnavailable
// and DuplicateBooking both map to HTTP 409 but carry different payloads.
type Error struct {
	Kind     Kind
	Message  string
	Existing *AppointmentRef
	err      error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func SlotUnavailablef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSlotUnavailable, Message: fmt.Sprintf(format, args...)}
}

// DuplicateBookingError rejects a booking that falls inside the cooldown
// window of an existing appointment for the same patient, professional and
// specialty.
func DuplicateBookingError(existing *Appointment) *Error {
	return &Error{
		Kind:    KindDuplicateBooking,
		Message: "an appointment for this patient, professional and specialty already exists within the cooldown window",
		Existing: &AppointmentRef{
			ID:     existing.ID,
			Date:   existing.StartTime,
			Status: existing.Status,
		},
	}
}

// Internal wraps a persistence or infrastructure failure. The wrapped error
// is logged server-side and never exposed to clients.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, err: err}
}
