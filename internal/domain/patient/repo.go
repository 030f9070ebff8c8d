package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// SoftDelete clears the active flag; the row stays for appointment
	// history.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Search matches q against name, email and national id (case
	// insensitive); empty q lists everyone active.
	Search(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
	// FindByIdentifier matches by national id first, then email; (nil, nil)
	// when nothing matches.
	FindByIdentifier(ctx context.Context, nationalID, email string) (*Patient, error)
}
