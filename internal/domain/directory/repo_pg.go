package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinibook/clinibook/internal/platform/db"
)

// ErrEmailTaken reports a unique-constraint violation on professionals.email.
var ErrEmailTaken = errors.New("email already registered")

type professionalRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfessionalRepoPG(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepoPG{pool: pool}
}

const professionalCols = `id, name, email, phone, password_hash, role, active, created_at, updated_at`

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.PasswordHash, &p.Role, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	p.Active = true
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO professionals (id, name, email, phone, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Email, p.Phone, p.PasswordHash, p.Role, p.Active)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert professional: %w", err)
	}
	return nil
}

func (r *professionalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professionals WHERE id = $1`, id)
	p, err := scanProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get professional: %w", err)
	}
	return p, nil
}

func (r *professionalRepoPG) GetByEmail(ctx context.Context, email string) (*Professional, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professionals WHERE lower(email) = lower($1)`, email)
	p, err := scanProfessional(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get professional by email: %w", err)
	}
	return p, nil
}

func (r *professionalRepoPG) Update(ctx context.Context, p *Professional) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE professionals
		SET name = $2, email = $3, phone = $4, password_hash = $5, role = $6, active = $7, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, p.PasswordHash, p.Role, p.Active)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update professional: %w", err)
	}
	return nil
}

func (r *professionalRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE professionals SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete professional: %w", err)
	}
	return nil
}

func (r *professionalRepoPG) List(ctx context.Context, limit, offset int) ([]*Professional, int, error) {
	var total int
	conn := db.Conn(ctx, r.pool)
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM professionals WHERE active = true`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count professionals: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT `+professionalCols+` FROM professionals
		WHERE active = true ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	var out []*Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan professional: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

type specialtyRepoPG struct {
	pool *pgxpool.Pool
}

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepoPG{pool: pool}
}

const specialtyCols = `id, name, description, duration_minutes, price, color, active, created_at, updated_at`

func scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.Price, &s.Color, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	s.Active = true
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO specialties (id, name, description, duration_minutes, price, color, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.Description, s.DurationMinutes, s.Price, s.Color, s.Active)
	if err != nil {
		return fmt.Errorf("insert specialty: %w", err)
	}
	return nil
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+specialtyCols+` FROM specialties WHERE id = $1`, id)
	s, err := scanSpecialty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get specialty: %w", err)
	}
	return s, nil
}

func (r *specialtyRepoPG) Update(ctx context.Context, s *Specialty) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE specialties
		SET name = $2, description = $3, duration_minutes = $4, price = $5, color = $6, active = $7, updated_at = now()
		WHERE id = $1`,
		s.ID, s.Name, s.Description, s.DurationMinutes, s.Price, s.Color, s.Active)
	if err != nil {
		return fmt.Errorf("update specialty: %w", err)
	}
	return nil
}

func (r *specialtyRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE specialties SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete specialty: %w", err)
	}
	return nil
}

func (r *specialtyRepoPG) List(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	var total int
	conn := db.Conn(ctx, r.pool)
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM specialties WHERE active = true`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count specialties: %w", err)
	}

	rows, err := conn.Query(ctx, `
		SELECT `+specialtyCols+` FROM specialties
		WHERE active = true ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	var out []*Specialty
	for rows.Next() {
		s, err := scanSpecialty(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan specialty: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

type assignmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) Assign(ctx context.Context, a *Assignment) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO professional_specialties (professional_id, specialty_id, terms_and_conditions, has_terms, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professional_id, specialty_id)
		DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = now()`,
		a.ProfessionalID, a.SpecialtyID, a.TermsAndConditions, a.HasTerms, a.IsActive)
	if err != nil {
		return fmt.Errorf("assign specialty: %w", err)
	}
	return nil
}

func (r *assignmentRepoPG) Get(ctx context.Context, professionalID, specialtyID uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT professional_id, specialty_id, terms_and_conditions, has_terms, is_active, created_at, updated_at
		FROM professional_specialties
		WHERE professional_id = $1 AND specialty_id = $2`,
		professionalID, specialtyID).
		Scan(&a.ProfessionalID, &a.SpecialtyID, &a.TermsAndConditions, &a.HasTerms, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepoPG) SetTerms(ctx context.Context, professionalID, specialtyID uuid.UUID, terms string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE professional_specialties
		SET terms_and_conditions = $3, has_terms = true, updated_at = now()
		WHERE professional_id = $1 AND specialty_id = $2`,
		professionalID, specialtyID, terms)
	if err != nil {
		return fmt.Errorf("set terms: %w", err)
	}
	return nil
}

func (r *assignmentRepoPG) SetActive(ctx context.Context, professionalID, specialtyID uuid.UUID, active bool) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE professional_specialties
		SET is_active = $3, updated_at = now()
		WHERE professional_id = $1 AND specialty_id = $2`,
		professionalID, specialtyID, active)
	if err != nil {
		return fmt.Errorf("set assignment active: %w", err)
	}
	return nil
}

const assignedCols = `s.id, s.name, s.description, s.duration_minutes, s.price, s.color, s.active, s.created_at, s.updated_at,
		ps.has_terms, ps.is_active, ps.terms_and_conditions`

func scanAssigned(rows pgx.Rows) (*AssignedSpecialty, error) {
	var a AssignedSpecialty
	err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.DurationMinutes, &a.Price, &a.Color, &a.Active,
		&a.CreatedAt, &a.UpdatedAt, &a.HasTerms, &a.IsActive, &a.TermsAndConditions)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+assignedCols+`
		FROM professional_specialties ps
		JOIN specialties s ON s.id = ps.specialty_id
		WHERE ps.professional_id = $1 AND s.active = true
		ORDER BY s.name`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	return collectAssigned(rows)
}

func (r *assignmentRepoPG) ListPendingTerms(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+assignedCols+`
		FROM professional_specialties ps
		JOIN specialties s ON s.id = ps.specialty_id
		WHERE ps.professional_id = $1 AND ps.has_terms = false AND ps.is_active = true AND s.active = true
		ORDER BY s.name`, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list pending terms: %w", err)
	}
	defer rows.Close()
	return collectAssigned(rows)
}

func collectAssigned(rows pgx.Rows) ([]*AssignedSpecialty, error) {
	var out []*AssignedSpecialty
	for rows.Next() {
		a, err := scanAssigned(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
