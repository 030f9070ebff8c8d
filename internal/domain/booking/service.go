package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultCancellationReason is stored when a cancellation arrives without one.
const DefaultCancellationReason = "not specified"

// Options tune the booking engine. Zero values fall back to the domain
// defaults (15-minute grid, 15-day cooldown).
type Options struct {
	GranularityMinutes int
	CooldownDays       int
}

// TxRunner runs fn atomically: every repository call made through fn's
// context joins one transaction, and nothing persists if fn errors.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments AppointmentRepository
	schedules    ScheduleRepository
	directory    Directory
	patients     PatientStore
	runTx        TxRunner
	opts         Options
	now          func() time.Time
}

func NewService(appts AppointmentRepository, scheds ScheduleRepository, dir Directory, patients PatientStore, runTx TxRunner, opts Options) *Service {
	if opts.GranularityMinutes <= 0 {
		opts.GranularityMinutes = 15
	}
	if opts.CooldownDays <= 0 {
		opts.CooldownDays = 15
	}
	return &Service{
		appointments: appts,
		schedules:    scheds,
		directory:    dir,
		patients:     patients,
		runTx:        runTx,
		opts:         opts,
		now:          time.Now,
	}
}

func (s *Service) lookup(ctx context.Context, professionalID, specialtyID uuid.UUID) (*Professional, *Specialty, error) {
	pro, err := s.directory.FindProfessional(ctx, professionalID)
	if err != nil {
		return nil, nil, Internal(err, "professional lookup failed")
	}
	if pro == nil || !pro.Active {
		return nil, nil, NotFoundf("professional %s not found", professionalID)
	}
	spec, err := s.directory.FindSpecialty(ctx, specialtyID)
	if err != nil {
		return nil, nil, Internal(err, "specialty lookup failed")
	}
	if spec == nil || !spec.Active {
		return nil, nil, NotFoundf("specialty %s not found", specialtyID)
	}
	return pro, spec, nil
}

// daySchedule resolves the day window for (professional, specialty, date):
// the specialty-scoped schedule when one exists, else the professional-wide
// fallback, else a disabled day. Absence is zero slots, never an error.
func (s *Service) daySchedule(ctx context.Context, professionalID, specialtyID uuid.UUID, date time.Time) (DaySchedule, error) {
	w, ok, err := s.schedules.Find(ctx, professionalID, &specialtyID)
	if err != nil {
		return DaySchedule{}, Internal(err, "schedule lookup failed")
	}
	if !ok {
		w, ok, err = s.schedules.Find(ctx, professionalID, nil)
		if err != nil {
			return DaySchedule{}, Internal(err, "schedule lookup failed")
		}
	}
	if !ok {
		return DaySchedule{}, nil
	}
	return w.Day(date.Weekday()), nil
}

// AvailableSlots computes the free slot start times for a professional,
// specialty and calendar date.
func (s *Service) AvailableSlots(ctx context.Context, professionalID, specialtyID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	_, spec, err := s.lookup(ctx, professionalID, specialtyID)
	if err != nil {
		return nil, err
	}
	day, err := s.daySchedule(ctx, professionalID, specialtyID, date)
	if err != nil {
		return nil, err
	}
	candidates := GenerateSlots(day, spec.DurationMinutes, s.opts.GranularityMinutes)
	if len(candidates) == 0 {
		return nil, nil
	}
	existing, err := s.appointments.ListForDay(ctx, professionalID, date)
	if err != nil {
		return nil, Internal(err, "appointment lookup failed")
	}
	return FilterAvailable(candidates, date, spec.DurationMinutes, existing), nil
}

// PatientDetails is the identity submitted with a public booking.
type PatientDetails struct {
	Name       string
	Email      string
	Phone      string
	NationalID string
	BirthDate  *time.Time
}

// BookingRequest is a validated booking command. Confirmed marks
// staff-initiated bookings, which skip the pending state.
type BookingRequest struct {
	ProfessionalID uuid.UUID
	SpecialtyID    uuid.UUID
	StartTime      time.Time
	Patient        PatientDetails
	Notes          *string
	Confirmed      bool
}

type BookingResult struct {
	Appointment *Appointment
	PatientID   uuid.UUID
	PatientName string
}

// CreateBooking validates and commits a booking. Precondition order: the
// professional and specialty must exist and be active; the requested time
// must lie on the day's slot grid; the slot must still be free against
// current store state; no occupying appointment for the same patient,
// professional and specialty may exist within the cooldown window. The
// conflict re-check, patient upsert and insert run in one transaction under
// a per-professional-day advisory lock, so a lost race surfaces as
// SlotUnavailable rather than a double booking.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if req.Patient.Name == "" {
		return nil, Validationf("patient name is required")
	}
	if req.Patient.NationalID == "" && req.Patient.Email == "" {
		return nil, Validationf("patient national id or email is required")
	}
	_, spec, err := s.lookup(ctx, req.ProfessionalID, req.SpecialtyID)
	if err != nil {
		return nil, err
	}
	day, err := s.daySchedule(ctx, req.ProfessionalID, req.SpecialtyID, req.StartTime)
	if err != nil {
		return nil, err
	}
	if !onGrid(req.StartTime, day, spec.DurationMinutes, s.opts.GranularityMinutes) {
		return nil, Validationf("requested time %s is outside the professional's schedule",
			req.StartTime.Format("15:04"))
	}

	var result *BookingResult
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDay(ctx, req.ProfessionalID, req.StartTime); err != nil {
			return Internal(err, "could not serialize booking")
		}
		existing, err := s.appointments.ListForDay(ctx, req.ProfessionalID, req.StartTime)
		if err != nil {
			return Internal(err, "appointment lookup failed")
		}
		if slotTaken(req.StartTime, spec.DurationMinutes, existing, nil) {
			return SlotUnavailablef("the requested slot is no longer available")
		}

		found, err := s.patients.FindByIdentifier(ctx, req.Patient.NationalID, req.Patient.Email)
		if err != nil {
			return Internal(err, "patient lookup failed")
		}
		if found != nil {
			dup, err := s.appointments.FindCooldown(ctx, found.ID, req.ProfessionalID, req.SpecialtyID,
				req.StartTime, s.opts.CooldownDays)
			if err != nil {
				return Internal(err, "cooldown lookup failed")
			}
			if dup != nil {
				return DuplicateBookingError(dup)
			}
		}

		rec := &PatientRecord{
			Name:       req.Patient.Name,
			Email:      req.Patient.Email,
			Phone:      req.Patient.Phone,
			NationalID: req.Patient.NationalID,
			BirthDate:  req.Patient.BirthDate,
		}
		if found != nil {
			rec.ID = found.ID
		}
		if err := s.patients.Upsert(ctx, rec); err != nil {
			return Internal(err, "patient upsert failed")
		}

		status := StatusPending
		if req.Confirmed {
			status = StatusConfirmed
		}
		appt := &Appointment{
			PatientID:       rec.ID,
			ProfessionalID:  req.ProfessionalID,
			SpecialtyID:     req.SpecialtyID,
			StartTime:       req.StartTime,
			MinutesDuration: spec.DurationMinutes,
			Status:          status,
			Notes:           req.Notes,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return err
		}
		result = &BookingResult{Appointment: appt, PatientID: rec.ID, PatientName: rec.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// onGrid reports whether t is a slot the day schedule can actually produce.
func onGrid(t time.Time, day DaySchedule, durationMin, granularityMin int) bool {
	tod := TimeOfDay(t.Hour()*60 + t.Minute())
	for _, slot := range GenerateSlots(day, durationMin, granularityMin) {
		if slot == tod {
			return true
		}
	}
	return false
}

// Get returns an appointment with the time-based auto transition applied.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = a.EffectiveStatus(s.now())
	return a, nil
}

// List returns appointments narrowed by the filter, with auto transitions
// applied. Role visibility arrives as f.ProfessionalScope; this layer never
// re-derives it.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	items, total, err := s.appointments.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, Internal(err, "appointment listing failed")
	}
	now := s.now()
	for _, a := range items {
		a.Status = a.EffectiveStatus(now)
	}
	return items, total, nil
}

// Cancel transitions a pending or confirmed appointment to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eff := a.EffectiveStatus(s.now())
	if !CanTransition(eff, StatusCancelled) {
		return nil, Validationf("cannot cancel a %s appointment", eff)
	}
	if reason == "" {
		reason = DefaultCancellationReason
	}
	a.Status = StatusCancelled
	a.CancellationReason = &reason
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, Internal(err, "cancel failed")
	}
	return a, nil
}

// Confirm transitions a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eff := a.EffectiveStatus(s.now())
	if !CanTransition(eff, StatusConfirmed) {
		return nil, Validationf("cannot confirm a %s appointment", eff)
	}
	a.Status = StatusConfirmed
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, Internal(err, "confirm failed")
	}
	return a, nil
}

// Reschedule moves a pending or confirmed appointment to a new start time.
// The new slot gets the same commit-time conflict re-check as a fresh
// booking, and the appointment drops back to pending.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	eff := a.EffectiveStatus(s.now())
	if eff != StatusPending && eff != StatusConfirmed {
		return nil, Validationf("cannot reschedule a %s appointment", eff)
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDay(ctx, a.ProfessionalID, newStart); err != nil {
			return Internal(err, "could not serialize reschedule")
		}
		existing, err := s.appointments.ListForDay(ctx, a.ProfessionalID, newStart)
		if err != nil {
			return Internal(err, "appointment lookup failed")
		}
		if slotTaken(newStart, a.MinutesDuration, existing, a) {
			return SlotUnavailablef("the requested slot is no longer available")
		}
		a.StartTime = newStart
		a.Status = StatusPending
		return s.appointments.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
