package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinibook/clinibook/internal/platform/db"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, patient_id, professional_id, specialty_id, start_time,
	minutes_duration, status, notes, cancellation_reason, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProfessionalID, &a.SpecialtyID, &a.StartTime,
		&a.MinutesDuration, &a.Status, &a.Notes, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, professional_id, specialty_id,
			start_time, minutes_duration, status, notes, cancellation_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.ProfessionalID, a.SpecialtyID,
		a.StartTime, a.MinutesDuration, a.Status, a.Notes, a.CancellationReason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index over occupying rows: another booking won
			// the race for this professional/start_time.
			return SlotUnavailablef("the requested slot is no longer available")
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundf("appointment %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET start_time=$2, status=$3, notes=$4,
			cancellation_reason=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.StartTime, a.Status, a.Notes, a.CancellationReason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return SlotUnavailablef("the requested slot is no longer available")
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) ListForDay(ctx context.Context, professionalID uuid.UUID, t time.Time) ([]*Appointment, error) {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE professional_id = $1 AND start_time >= $2 AND start_time < $3
			AND status IN ('pending','confirmed')
		ORDER BY start_time ASC`,
		professionalID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list appointments for day: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) FindCooldown(ctx context.Context, patientID, professionalID, specialtyID uuid.UUID, around time.Time, windowDays int) (*Appointment, error) {
	from := around.AddDate(0, 0, -windowDays)
	to := around.AddDate(0, 0, windowDays)
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE patient_id = $1 AND professional_id = $2 AND specialty_id = $3
			AND status IN ('pending','confirmed')
			AND start_time BETWEEN $4 AND $5
		ORDER BY start_time ASC
		LIMIT 1`,
		patientID, professionalID, specialtyID, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cooldown lookup: %w", err)
	}
	return a, nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE 1=1`
	var args []interface{}
	idx := 1

	if len(f.ProfessionalScope) > 0 {
		query += fmt.Sprintf(` AND professional_id = ANY($%d)`, idx)
		countQuery += fmt.Sprintf(` AND professional_id = ANY($%d)`, idx)
		args = append(args, f.ProfessionalScope)
		idx++
	}
	if f.ProfessionalID != nil {
		query += fmt.Sprintf(` AND professional_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND professional_id = $%d`, idx)
		args = append(args, *f.ProfessionalID)
		idx++
	}
	if f.PatientID != nil {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *f.Status)
		idx++
	}
	if f.Date != nil {
		query += fmt.Sprintf(` AND start_time::date = $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_time::date = $%d`, idx)
		args = append(args, f.Date.Format("2006-01-02"))
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY start_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) LockDay(ctx context.Context, professionalID uuid.UUID, t time.Time) error {
	dayKey := t.Year()*10000 + int(t.Month())*100 + t.Day()
	_, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1), $2)`,
		professionalID.String(), int32(dayKey))
	if err != nil {
		return fmt.Errorf("lock professional day: %w", err)
	}
	return nil
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

func (r *scheduleRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

func (r *scheduleRepoPG) Find(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID) (WeeklySchedule, bool, error) {
	var raw []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT schedule FROM professional_schedules
		WHERE professional_id = $1 AND specialty_id IS NOT DISTINCT FROM $2`,
		professionalID, specialtyID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get schedule: %w", err)
	}
	var w WeeklySchedule
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, false, fmt.Errorf("decode schedule: %w", err)
	}
	return w, true, nil
}

func (r *scheduleRepoPG) Save(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID, w WeeklySchedule) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO professional_schedules (id, professional_id, specialty_id, schedule)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (professional_id, specialty_id)
		DO UPDATE SET schedule = EXCLUDED.schedule, updated_at = NOW()`,
		uuid.New(), professionalID, specialtyID, raw)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}
