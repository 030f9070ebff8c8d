package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockApptRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	stored := *a
	m.appts[a.ID] = &stored
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, NotFoundf("appointment %s not found", id)
	}
	copied := *a
	return &copied, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	stored := *a
	m.appts[a.ID] = &stored
	return nil
}

func (m *mockApptRepo) ListForDay(_ context.Context, professionalID uuid.UUID, t time.Time) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.ProfessionalID == professionalID && a.Occupying() &&
			a.StartTime.Year() == t.Year() && a.StartTime.YearDay() == t.YearDay() {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockApptRepo) FindCooldown(_ context.Context, patientID, professionalID, specialtyID uuid.UUID, around time.Time, windowDays int) (*Appointment, error) {
	from := around.AddDate(0, 0, -windowDays)
	to := around.AddDate(0, 0, windowDays)
	for _, a := range m.appts {
		if a.PatientID == patientID && a.ProfessionalID == professionalID &&
			a.SpecialtyID == specialtyID && a.Occupying() &&
			!a.StartTime.Before(from) && !a.StartTime.After(to) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockApptRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if len(f.ProfessionalScope) > 0 {
			inScope := false
			for _, id := range f.ProfessionalScope {
				if a.ProfessionalID == id {
					inScope = true
				}
			}
			if !inScope {
				continue
			}
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		copied := *a
		result = append(result, &copied)
	}
	return result, len(result), nil
}

func (m *mockApptRepo) LockDay(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type mockScheduleRepo struct {
	scheds map[string]WeeklySchedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{scheds: make(map[string]WeeklySchedule)}
}

func schedKey(professionalID uuid.UUID, specialtyID *uuid.UUID) string {
	if specialtyID == nil {
		return professionalID.String()
	}
	return professionalID.String() + "/" + specialtyID.String()
}

func (m *mockScheduleRepo) Find(_ context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID) (WeeklySchedule, bool, error) {
	w, ok := m.scheds[schedKey(professionalID, specialtyID)]
	return w, ok, nil
}

func (m *mockScheduleRepo) Save(_ context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID, w WeeklySchedule) error {
	m.scheds[schedKey(professionalID, specialtyID)] = w
	return nil
}

type mockDirectory struct {
	pros  map[uuid.UUID]*Professional
	specs map[uuid.UUID]*Specialty
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		pros:  make(map[uuid.UUID]*Professional),
		specs: make(map[uuid.UUID]*Specialty),
	}
}

func (m *mockDirectory) FindProfessional(_ context.Context, id uuid.UUID) (*Professional, error) {
	return m.pros[id], nil
}

func (m *mockDirectory) FindSpecialty(_ context.Context, id uuid.UUID) (*Specialty, error) {
	return m.specs[id], nil
}

type mockPatientStore struct {
	patients map[uuid.UUID]*PatientRecord
}

func newMockPatientStore() *mockPatientStore {
	return &mockPatientStore{patients: make(map[uuid.UUID]*PatientRecord)}
}

func (m *mockPatientStore) FindByIdentifier(_ context.Context, nationalID, email string) (*PatientRecord, error) {
	if nationalID != "" {
		for _, p := range m.patients {
			if p.NationalID == nationalID {
				copied := *p
				return &copied, nil
			}
		}
	}
	if email != "" {
		for _, p := range m.patients {
			if p.Email == email {
				copied := *p
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (m *mockPatientStore) Upsert(_ context.Context, p *PatientRecord) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	m.patients[p.ID] = &stored
	return nil
}

// -- Fixture --

type fixture struct {
	svc      *Service
	appts    *mockApptRepo
	scheds   *mockScheduleRepo
	patients *mockPatientStore
	pro      *Professional
	spec     *Specialty
}

func allWeek(day DaySchedule) WeeklySchedule {
	w := make(WeeklySchedule)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		w[wd] = day
	}
	return w
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := newMockDirectory()
	pro := &Professional{ID: uuid.New(), Name: "Dra. Rivas", Active: true}
	spec := &Specialty{ID: uuid.New(), Name: "General", DurationMinutes: 60, Active: true}
	dir.pros[pro.ID] = pro
	dir.specs[spec.ID] = spec

	scheds := newMockScheduleRepo()
	scheds.scheds[schedKey(pro.ID, nil)] = allWeek(
		withLunch(t, workDay(t, "09:00", "18:00"), "13:00", "14:00"))

	appts := newMockApptRepo()
	patients := newMockPatientStore()
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	svc := NewService(appts, scheds, dir, patients, runTx, Options{})
	// Pin the clock before bookingDay so auto transitions stay deterministic.
	svc.now = func() time.Time { return time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, appts: appts, scheds: scheds, patients: patients, pro: pro, spec: spec}
}

// bookingDay is a Monday well in the future so auto transitions stay out of
// the way.
var bookingDay = time.Date(2027, 1, 4, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hhmm string) time.Time {
	tod, err := ParseTimeOfDay(hhmm)
	if err != nil {
		panic(err)
	}
	return tod.At(day)
}

func (f *fixture) request(start time.Time, nationalID string) BookingRequest {
	return BookingRequest{
		ProfessionalID: f.pro.ID,
		SpecialtyID:    f.spec.ID,
		StartTime:      start,
		Patient: PatientDetails{
			Name:       "Ana Soto",
			Email:      nationalID + "@example.com",
			Phone:      "+56911111111",
			NationalID: nationalID,
		},
	}
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *booking.Error, got %v", err)
	}
	return be.Kind
}

// -- Tests --

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Appointment.Status != StatusPending {
		t.Errorf("public booking should be pending, got %s", result.Appointment.Status)
	}
	if result.Appointment.MinutesDuration != 60 {
		t.Errorf("expected specialty duration 60, got %d", result.Appointment.MinutesDuration)
	}
	if result.PatientID == uuid.Nil {
		t.Error("expected a patient id")
	}
	if result.PatientName != "Ana Soto" {
		t.Errorf("expected patient name surfaced, got %q", result.PatientName)
	}
}

func TestCreateBooking_StaffStartsConfirmed(t *testing.T) {
	f := newFixture(t)
	req := f.request(at(bookingDay, "10:00"), "11111111-1")
	req.Confirmed = true

	result, err := f.svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Appointment.Status != StatusConfirmed {
		t.Errorf("staff booking should be confirmed, got %s", result.Appointment.Status)
	}
}

func TestCreateBooking_NoDoubleBooking(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1")); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "22222222-2"))
	if kindOf(t, err) != KindSlotUnavailable {
		t.Fatalf("expected SlotUnavailable, got %v", err)
	}

	// Partial overlap is a conflict too: [10:30,11:30) vs [10:00,11:00).
	_, err = f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:30"), "22222222-2"))
	if kindOf(t, err) != KindSlotUnavailable {
		t.Fatalf("expected SlotUnavailable for overlap, got %v", err)
	}
}

func TestCreateBooking_Cooldown(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatalf("day-0 booking: %v", err)
	}

	// Day 10, different slot: inside the ±15 day window, rejected with the
	// existing appointment surfaced.
	day10 := bookingDay.AddDate(0, 0, 10)
	_, err = f.svc.CreateBooking(context.Background(), f.request(at(day10, "11:00"), "11111111-1"))
	var be *Error
	if !errors.As(err, &be) || be.Kind != KindDuplicateBooking {
		t.Fatalf("expected DuplicateBooking, got %v", err)
	}
	if be.Existing == nil || be.Existing.ID != first.Appointment.ID {
		t.Errorf("expected the conflicting appointment to be surfaced")
	}
	if be.Existing.Status != StatusPending {
		t.Errorf("expected conflicting status pending, got %s", be.Existing.Status)
	}

	// Day 20: outside the window, accepted.
	day20 := bookingDay.AddDate(0, 0, 20)
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(day20, "11:00"), "11111111-1")); err != nil {
		t.Fatalf("day-20 booking: %v", err)
	}
}

func TestCreateBooking_UnknownReferences(t *testing.T) {
	f := newFixture(t)

	req := f.request(at(bookingDay, "10:00"), "11111111-1")
	req.ProfessionalID = uuid.New()
	if _, err := f.svc.CreateBooking(context.Background(), req); kindOf(t, err) != KindNotFound {
		t.Error("expected NotFound for unknown professional")
	}

	req = f.request(at(bookingDay, "10:00"), "11111111-1")
	req.SpecialtyID = uuid.New()
	if _, err := f.svc.CreateBooking(context.Background(), req); kindOf(t, err) != KindNotFound {
		t.Error("expected NotFound for unknown specialty")
	}

	f.pro.Active = false
	req = f.request(at(bookingDay, "10:00"), "11111111-1")
	if _, err := f.svc.CreateBooking(context.Background(), req); kindOf(t, err) != KindNotFound {
		t.Error("expected NotFound for inactive professional")
	}
}

func TestCreateBooking_OutsideSchedule(t *testing.T) {
	f := newFixture(t)

	// Before opening.
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "08:00"), "11111111-1")); kindOf(t, err) != KindValidation {
		t.Error("expected Validation for a time before opening")
	}
	// Off-grid.
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:05"), "11111111-1")); kindOf(t, err) != KindValidation {
		t.Error("expected Validation for an off-grid time")
	}
	// During lunch.
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "13:00"), "11111111-1")); kindOf(t, err) != KindValidation {
		t.Error("expected Validation for a lunch-window time")
	}
}

func TestCreateBooking_MissingPatientIdentity(t *testing.T) {
	f := newFixture(t)
	req := f.request(at(bookingDay, "10:00"), "")
	req.Patient.Email = ""
	if _, err := f.svc.CreateBooking(context.Background(), req); kindOf(t, err) != KindValidation {
		t.Error("expected Validation without national id or email")
	}

	req = f.request(at(bookingDay, "10:00"), "11111111-1")
	req.Patient.Name = ""
	if _, err := f.svc.CreateBooking(context.Background(), req); kindOf(t, err) != KindValidation {
		t.Error("expected Validation without patient name")
	}
}

func TestCreateBooking_PatientLatestWins(t *testing.T) {
	f := newFixture(t)
	existing := &PatientRecord{
		Name:       "A. Soto",
		Email:      "old@example.com",
		Phone:      "+56900000000",
		NationalID: "11111111-1",
	}
	if err := f.patients.Upsert(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PatientID != existing.ID {
		t.Fatal("expected the existing patient to be matched, not duplicated")
	}
	updated := f.patients.patients[existing.ID]
	if updated.Email != "11111111-1@example.com" {
		t.Errorf("expected incoming email to overwrite, got %q", updated.Email)
	}
	if updated.Name != "Ana Soto" {
		t.Errorf("expected incoming name to overwrite, got %q", updated.Name)
	}
}

func TestAvailableSlots_RoundTrip(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1")); err != nil {
		t.Fatalf("booking: %v", err)
	}

	slots, err := f.svc.AvailableSlots(context.Background(), f.pro.ID, f.spec.ID, bookingDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containsSlot(slots, mustTime(t, "10:00")) {
		t.Error("freshly booked slot must disappear from availability")
	}
	if !containsSlot(slots, mustTime(t, "09:00")) {
		t.Error("expected 09:00 to remain available")
	}
	if !containsSlot(slots, mustTime(t, "11:00")) {
		t.Error("expected 11:00 to remain available")
	}
}

func TestAvailableSlots_NoScheduleMeansEmpty(t *testing.T) {
	f := newFixture(t)
	delete(f.scheds.scheds, schedKey(f.pro.ID, nil))

	slots, err := f.svc.AvailableSlots(context.Background(), f.pro.ID, f.spec.ID, bookingDay)
	if err != nil {
		t.Fatalf("absent schedule must not be an error, got %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected zero slots, got %v", slots)
	}
}

func TestAvailableSlots_SpecialtyScopedOverride(t *testing.T) {
	f := newFixture(t)
	// Specialty-scoped schedule with a shorter afternoon window wins over
	// the professional-wide fallback.
	f.scheds.scheds[schedKey(f.pro.ID, &f.spec.ID)] = allWeek(workDay(t, "15:00", "17:00"))

	slots, err := f.svc.AvailableSlots(context.Background(), f.pro.ID, f.spec.ID, bookingDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if containsSlot(slots, mustTime(t, "09:00")) {
		t.Error("fallback schedule must not apply when a specialty-scoped one exists")
	}
	if !containsSlot(slots, mustTime(t, "15:00")) {
		t.Error("expected 15:00 from the specialty-scoped schedule")
	}
	if !containsSlot(slots, mustTime(t, "16:00")) {
		t.Error("expected 16:00 from the specialty-scoped schedule")
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}

	a, err := f.svc.Cancel(context.Background(), result.Appointment.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", a.Status)
	}
	if a.CancellationReason == nil || *a.CancellationReason != DefaultCancellationReason {
		t.Errorf("expected default reason %q", DefaultCancellationReason)
	}

	// Cancelled is terminal.
	if _, err := f.svc.Cancel(context.Background(), result.Appointment.ID, "again"); kindOf(t, err) != KindValidation {
		t.Error("expected Validation when cancelling a cancelled appointment")
	}
}

func TestCancel_CustomReason(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := f.svc.Cancel(context.Background(), result.Appointment.ID, "patient request")
	if err != nil {
		t.Fatal(err)
	}
	if a.CancellationReason == nil || *a.CancellationReason != "patient request" {
		t.Errorf("expected reason to persist, got %v", a.CancellationReason)
	}
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}

	a, err := f.svc.Confirm(context.Background(), result.Appointment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", a.Status)
	}

	if _, err := f.svc.Confirm(context.Background(), result.Appointment.ID); kindOf(t, err) != KindValidation {
		t.Error("expected Validation when confirming twice")
	}
}

func TestReschedule_Conflict(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "11:00"), "22222222-2")); err != nil {
		t.Fatal(err)
	}

	// Moving A onto B's slot is rejected.
	if _, err := f.svc.Reschedule(context.Background(), a.Appointment.ID, at(bookingDay, "11:00")); kindOf(t, err) != KindSlotUnavailable {
		t.Fatalf("expected SlotUnavailable, got %v", err)
	}

	// A free slot works and resets the status to pending.
	if _, err := f.svc.Confirm(context.Background(), a.Appointment.ID); err != nil {
		t.Fatal(err)
	}
	moved, err := f.svc.Reschedule(context.Background(), a.Appointment.ID, at(bookingDay, "12:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if moved.Status != StatusPending {
		t.Errorf("reschedule must reset status to pending, got %s", moved.Status)
	}
	if !moved.StartTime.Equal(at(bookingDay, "12:00")) {
		t.Errorf("expected new start 12:00, got %v", moved.StartTime)
	}
}

func TestReschedule_OntoOwnSlot(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}
	// The appointment's own old interval never blocks its reschedule.
	if _, err := f.svc.Reschedule(context.Background(), a.Appointment.ID, at(bookingDay, "10:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGet_AppliesAutoTransition(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Confirm(context.Background(), result.Appointment.ID); err != nil {
		t.Fatal(err)
	}

	f.svc.now = func() time.Time { return at(bookingDay, "10:00").Add(24 * time.Hour) }
	a, err := f.svc.Get(context.Background(), result.Appointment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusCompleted {
		t.Errorf("past confirmed appointment must read completed, got %s", a.Status)
	}

	// The stored row is untouched.
	if f.appts.appts[result.Appointment.ID].Status != StatusConfirmed {
		t.Error("auto transition must not rewrite the stored status")
	}
}

func TestList_ScopedVisibility(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.CreateBooking(context.Background(), f.request(at(bookingDay, "10:00"), "11111111-1")); err != nil {
		t.Fatal(err)
	}

	other := uuid.New()
	items, total, err := f.svc.List(context.Background(), ListFilter{ProfessionalScope: []uuid.UUID{other}}, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("out-of-scope professional must see nothing, got %d", total)
	}

	_, total, err = f.svc.List(context.Background(), ListFilter{ProfessionalScope: []uuid.UUID{f.pro.ID}}, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("expected 1 appointment in scope, got %d", total)
	}
}
