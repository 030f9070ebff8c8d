package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows appointment listings. An empty ProfessionalScope means
// every professional is visible; callers derive the scope from the caller's
// role and pass it explicitly.
type ListFilter struct {
	ProfessionalScope []uuid.UUID
	ProfessionalID    *uuid.UUID
	PatientID         *uuid.UUID
	Status            *string
	Date              *time.Time
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// ListForDay returns the occupying appointments of a professional on the
	// calendar day containing t, in chronological order.
	ListForDay(ctx context.Context, professionalID uuid.UUID, t time.Time) ([]*Appointment, error)
	// FindCooldown returns an occupying appointment for the same patient,
	// professional and specialty whose start falls within windowDays of
	// around in either direction, or nil when none exists.
	FindCooldown(ctx context.Context, patientID, professionalID, specialtyID uuid.UUID, around time.Time, windowDays int) (*Appointment, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error)
	// LockDay serializes concurrent bookings on one professional-day. Only
	// meaningful inside a transaction; the lock releases at commit/rollback.
	LockDay(ctx context.Context, professionalID uuid.UUID, t time.Time) error
}

// ScheduleRepository stores weekly schedules per professional, optionally
// scoped to a specialty. A nil specialty id addresses the professional-wide
// fallback schedule.
type ScheduleRepository interface {
	Find(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID) (WeeklySchedule, bool, error)
	Save(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID, w WeeklySchedule) error
}

// Professional is the directory view the booking engine needs.
type Professional struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// Specialty carries the fixed appointment duration for a bookable service.
type Specialty struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	Active          bool
}

// Directory resolves professionals and specialties. Implementations return
// (nil, nil) for absent or soft-deleted records.
type Directory interface {
	FindProfessional(ctx context.Context, id uuid.UUID) (*Professional, error)
	FindSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error)
}

// PatientRecord is the patient identity the booking flow creates or
// refreshes. NationalID is the preferred stable identifier, email the
// fallback.
type PatientRecord struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Phone      string
	NationalID string
	BirthDate  *time.Time
}

// PatientStore is the narrow patient interface the booking flow consumes.
type PatientStore interface {
	// FindByIdentifier matches by national id first, then email; (nil, nil)
	// when no patient matches.
	FindByIdentifier(ctx context.Context, nationalID, email string) (*PatientRecord, error)
	// Upsert creates the record when ID is nil, otherwise overwrites the
	// mutable fields (latest wins). Sets ID on create.
	Upsert(ctx context.Context, p *PatientRecord) error
}
