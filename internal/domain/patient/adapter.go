package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinibook/clinibook/internal/domain/booking"
)

// BookingStore adapts the patient repository to the narrow interface the
// booking engine consumes. The upsert implements the latest-wins identity
// refresh: an existing patient's mutable fields are overwritten with the
// incoming values.
type BookingStore struct {
	repo Repository
}

func NewBookingStore(repo Repository) *BookingStore {
	return &BookingStore{repo: repo}
}

func (a *BookingStore) FindByIdentifier(ctx context.Context, nationalID, email string) (*booking.PatientRecord, error) {
	p, err := a.repo.FindByIdentifier(ctx, nationalID, email)
	if err != nil || p == nil {
		return nil, err
	}
	return toRecord(p), nil
}

func (a *BookingStore) Upsert(ctx context.Context, rec *booking.PatientRecord) error {
	if rec.ID == uuid.Nil {
		p := fromRecord(rec)
		if err := a.repo.Create(ctx, p); err != nil {
			return err
		}
		rec.ID = p.ID
		return nil
	}

	existing, err := a.repo.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		p := fromRecord(rec)
		if err := a.repo.Create(ctx, p); err != nil {
			return err
		}
		rec.ID = p.ID
		return nil
	}

	existing.Name = rec.Name
	if rec.Email != "" {
		existing.Email = rec.Email
	}
	if rec.Phone != "" {
		existing.Phone = rec.Phone
	}
	if rec.NationalID != "" {
		existing.NationalID = rec.NationalID
	}
	if rec.BirthDate != nil {
		existing.BirthDate = rec.BirthDate
	}
	return a.repo.Update(ctx, existing)
}

func toRecord(p *Patient) *booking.PatientRecord {
	return &booking.PatientRecord{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		NationalID: p.NationalID,
		BirthDate:  p.BirthDate,
	}
}

func fromRecord(rec *booking.PatientRecord) *Patient {
	return &Patient{
		ID:         rec.ID,
		Name:       rec.Name,
		Email:      rec.Email,
		Phone:      rec.Phone,
		NationalID: rec.NationalID,
		BirthDate:  rec.BirthDate,
	}
}
