package directory

import (
	"context"

	"github.com/google/uuid"
)

// ProfessionalRepository persists staff accounts. Lookups return (nil, nil)
// when no row matches.
type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	GetByEmail(ctx context.Context, email string) (*Professional, error)
	Update(ctx context.Context, p *Professional) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Professional, int, error)
}

// SpecialtyRepository persists the specialty catalog.
type SpecialtyRepository interface {
	Create(ctx context.Context, s *Specialty) error
	GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error)
	Update(ctx context.Context, s *Specialty) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Specialty, int, error)
}

// AssignmentRepository persists professional-specialty links.
type AssignmentRepository interface {
	Assign(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, professionalID, specialtyID uuid.UUID) (*Assignment, error)
	SetTerms(ctx context.Context, professionalID, specialtyID uuid.UUID, terms string) error
	SetActive(ctx context.Context, professionalID, specialtyID uuid.UUID, active bool) error
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error)
	ListPendingTerms(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error)
}
