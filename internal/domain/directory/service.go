package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/clinibook/clinibook/internal/domain/booking"
	"github.com/clinibook/clinibook/internal/platform/auth"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var validRoles = map[string]bool{
	auth.RoleAdmin:   true,
	auth.RoleMember:  true,
	auth.RoleLimited: true,
}

// Service bundles staff accounts, the specialty catalog, assignments, and
// per-professional weekly schedules.
type Service struct {
	professionals ProfessionalRepository
	specialties   SpecialtyRepository
	assignments   AssignmentRepository
	schedules     booking.ScheduleRepository
	jwtSecret     []byte
}

func NewService(
	professionals ProfessionalRepository,
	specialties SpecialtyRepository,
	assignments AssignmentRepository,
	schedules booking.ScheduleRepository,
	jwtSecret []byte,
) *Service {
	return &Service{
		professionals: professionals,
		specialties:   specialties,
		assignments:   assignments,
		schedules:     schedules,
		jwtSecret:     jwtSecret,
	}
}

// Login verifies credentials and returns a signed token plus the account.
// Inactive accounts cannot log in.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Professional, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	pro, err := s.professionals.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if pro == nil || !pro.Active || !auth.CheckPassword(pro.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := auth.IssueToken(s.jwtSecret, pro.ID, pro.Name, pro.Email, pro.Role)
	if err != nil {
		return "", nil, err
	}
	return token, pro, nil
}

type ProfessionalInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Service) CreateProfessional(ctx context.Context, in ProfessionalInput) (*Professional, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if in.Role == "" {
		in.Role = auth.RoleMember
	}
	if !validRoles[in.Role] {
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	pro := &Professional{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.professionals.Create(ctx, pro); err != nil {
		return nil, err
	}
	return pro, nil
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	pro, err := s.professionals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pro == nil {
		return nil, fmt.Errorf("professional %s: %w", id, ErrNotFound)
	}
	return pro, nil
}

// UpdateProfessional applies the non-empty fields of in. An empty password
// leaves the stored hash untouched.
func (s *Service) UpdateProfessional(ctx context.Context, id uuid.UUID, in ProfessionalInput) (*Professional, error) {
	pro, err := s.GetProfessional(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		pro.Name = name
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("a valid email is required")
		}
		pro.Email = email
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		pro.Phone = phone
	}
	if in.Password != "" {
		if len(in.Password) < 8 {
			return nil, fmt.Errorf("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		pro.PasswordHash = hash
	}
	if in.Role != "" {
		if !validRoles[in.Role] {
			return nil, fmt.Errorf("unknown role %q", in.Role)
		}
		pro.Role = in.Role
	}
	if err := s.professionals.Update(ctx, pro); err != nil {
		return nil, err
	}
	return pro, nil
}

func (s *Service) DeleteProfessional(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProfessional(ctx, id); err != nil {
		return err
	}
	return s.professionals.SoftDelete(ctx, id)
}

func (s *Service) ListProfessionals(ctx context.Context, limit, offset int) ([]*Professional, int, error) {
	return s.professionals.List(ctx, limit, offset)
}

type SpecialtyInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	DurationMinutes int      `json:"duration_minutes"`
	Price           *float64 `json:"price"`
	Color           string   `json:"color"`
}

func (s *Service) CreateSpecialty(ctx context.Context, in SpecialtyInput) (*Specialty, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration_minutes must be positive")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if !colorPattern.MatchString(in.Color) {
		return nil, fmt.Errorf("color must be a hex value like %s", DefaultColor)
	}

	spec := &Specialty{
		Name:            in.Name,
		Description:     in.Description,
		DurationMinutes: in.DurationMinutes,
		Color:           in.Color,
	}
	if in.Price != nil {
		spec.Price = *in.Price
	}
	if err := s.specialties.Create(ctx, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *Service) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	spec, err := s.specialties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("specialty %s: %w", id, ErrNotFound)
	}
	return spec, nil
}

func (s *Service) UpdateSpecialty(ctx context.Context, id uuid.UUID, in SpecialtyInput) (*Specialty, error) {
	spec, err := s.GetSpecialty(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		spec.Name = name
	}
	if in.Description != "" {
		spec.Description = in.Description
	}
	if in.DurationMinutes != 0 {
		if in.DurationMinutes < 0 {
			return nil, fmt.Errorf("duration_minutes must be positive")
		}
		spec.DurationMinutes = in.DurationMinutes
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("price cannot be negative")
		}
		spec.Price = *in.Price
	}
	if in.Color != "" {
		if !colorPattern.MatchString(in.Color) {
			return nil, fmt.Errorf("color must be a hex value like %s", DefaultColor)
		}
		spec.Color = in.Color
	}
	if err := s.specialties.Update(ctx, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func (s *Service) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetSpecialty(ctx, id); err != nil {
		return err
	}
	return s.specialties.SoftDelete(ctx, id)
}

func (s *Service) ListSpecialties(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	return s.specialties.List(ctx, limit, offset)
}

// AssignSpecialty links a specialty to a professional. The pair starts
// without accepted terms and stays unbookable until AcceptTerms runs.
func (s *Service) AssignSpecialty(ctx context.Context, professionalID, specialtyID uuid.UUID) (*Assignment, error) {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	if _, err := s.GetSpecialty(ctx, specialtyID); err != nil {
		return nil, err
	}
	a := &Assignment{
		ProfessionalID: professionalID,
		SpecialtyID:    specialtyID,
		IsActive:       true,
	}
	if err := s.assignments.Assign(ctx, a); err != nil {
		return nil, err
	}
	return s.assignments.Get(ctx, professionalID, specialtyID)
}

// AcceptTerms records the terms text for an assignment and marks it accepted.
func (s *Service) AcceptTerms(ctx context.Context, professionalID, specialtyID uuid.UUID, terms string) error {
	a, err := s.assignments.Get(ctx, professionalID, specialtyID)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("assignment: %w", ErrNotFound)
	}
	if strings.TrimSpace(terms) == "" {
		return fmt.Errorf("terms text is required")
	}
	return s.assignments.SetTerms(ctx, professionalID, specialtyID, terms)
}

func (s *Service) AssignedSpecialties(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error) {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	return s.assignments.ListByProfessional(ctx, professionalID)
}

// PendingTerms lists the active assignments whose terms have not been
// accepted yet. The frontend nags the professional with this on login.
func (s *Service) PendingTerms(ctx context.Context, professionalID uuid.UUID) ([]*AssignedSpecialty, error) {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	return s.assignments.ListPendingTerms(ctx, professionalID)
}

// Schedule returns the professional's weekly schedule, specialty-scoped when
// specialtyID is set. Absent schedules come back as an empty week.
func (s *Service) Schedule(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID) (booking.WeeklySchedule, error) {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	week, ok, err := s.schedules.Find(ctx, professionalID, specialtyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return booking.WeeklySchedule{}, nil
	}
	return week, nil
}

// SaveSchedule validates and stores a weekly schedule.
func (s *Service) SaveSchedule(ctx context.Context, professionalID uuid.UUID, specialtyID *uuid.UUID, week booking.WeeklySchedule) error {
	if _, err := s.GetProfessional(ctx, professionalID); err != nil {
		return err
	}
	if specialtyID != nil {
		if _, err := s.GetSpecialty(ctx, *specialtyID); err != nil {
			return err
		}
	}
	if err := week.Validate(); err != nil {
		return err
	}
	return s.schedules.Save(ctx, professionalID, specialtyID, week)
}
