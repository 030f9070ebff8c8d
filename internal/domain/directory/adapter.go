package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinibook/clinibook/internal/domain/booking"
)

// BookingDirectory adapts the directory repositories to the lookup surface
// the booking engine depends on.
type BookingDirectory struct {
	professionals ProfessionalRepository
	specialties   SpecialtyRepository
}

func NewBookingDirectory(professionals ProfessionalRepository, specialties SpecialtyRepository) *BookingDirectory {
	return &BookingDirectory{professionals: professionals, specialties: specialties}
}

func (d *BookingDirectory) FindProfessional(ctx context.Context, id uuid.UUID) (*booking.Professional, error) {
	pro, err := d.professionals.GetByID(ctx, id)
	if err != nil || pro == nil {
		return nil, err
	}
	return &booking.Professional{ID: pro.ID, Name: pro.Name, Active: pro.Active}, nil
}

func (d *BookingDirectory) FindSpecialty(ctx context.Context, id uuid.UUID) (*booking.Specialty, error) {
	spec, err := d.specialties.GetByID(ctx, id)
	if err != nil || spec == nil {
		return nil, err
	}
	return &booking.Specialty{
		ID:              spec.ID,
		Name:            spec.Name,
		DurationMinutes: spec.DurationMinutes,
		Active:          spec.Active,
	}, nil
}
