package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinibook/clinibook/internal/config"
	"github.com/clinibook/clinibook/internal/domain/booking"
	"github.com/clinibook/clinibook/internal/domain/center"
	"github.com/clinibook/clinibook/internal/domain/directory"
)

// runSeed creates the admin account, a sample member, a small specialty
// catalog with assignments and weekly schedules, and the default clinic
// config. Safe to run once on a freshly migrated database.
func runSeed(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, adminEmail, adminPassword string) error {
	proRepo := directory.NewProfessionalRepoPG(pool)
	specRepo := directory.NewSpecialtyRepoPG(pool)
	assignRepo := directory.NewAssignmentRepoPG(pool)
	schedRepo := booking.NewScheduleRepoPG(pool)
	svc := directory.NewService(proRepo, specRepo, assignRepo, schedRepo, []byte(cfg.JWTSecret))

	existing, err := proRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("account %s already exists, refusing to seed twice", adminEmail)
	}

	admin, err := svc.CreateProfessional(ctx, directory.ProfessionalInput{
		Name:     "Isidora Azolas",
		Email:    adminEmail,
		Phone:    "+56911112222",
		Password: adminPassword,
		Role:     "admin",
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	member, err := svc.CreateProfessional(ctx, directory.ProfessionalInput{
		Name:     "Nicolás Pérez",
		Email:    "nico@clinic.local",
		Phone:    "+56977778888",
		Password: adminPassword,
		Role:     "member",
	})
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}

	price := func(v float64) *float64 { return &v }
	catalog := []directory.SpecialtyInput{
		{Name: "Sesión Psicológica", Description: "Atención psicológica individual", DurationMinutes: 50, Price: price(35000)},
		{Name: "Consulta Nutricional", Description: "Evaluación nutricional y plan", DurationMinutes: 45, Price: price(30000)},
		{Name: "Terapia de Pareja", Description: "Sesión conjunta para parejas", DurationMinutes: 60, Price: price(50000)},
	}
	var specs []*directory.Specialty
	for _, in := range catalog {
		spec, err := svc.CreateSpecialty(ctx, in)
		if err != nil {
			return fmt.Errorf("create specialty %q: %w", in.Name, err)
		}
		specs = append(specs, spec)
	}

	assignments := map[*directory.Professional][]*directory.Specialty{
		admin:  {specs[0], specs[2]},
		member: {specs[1], specs[0]},
	}
	for pro, list := range assignments {
		for _, spec := range list {
			if _, err := svc.AssignSpecialty(ctx, pro.ID, spec.ID); err != nil {
				return fmt.Errorf("assign %q to %s: %w", spec.Name, pro.Name, err)
			}
		}
	}

	if err := svc.SaveSchedule(ctx, admin.ID, nil, weekdays("09:00", "18:00", map[time.Weekday][2]string{
		time.Friday: {"09:00", "16:00"},
	})); err != nil {
		return fmt.Errorf("save admin schedule: %w", err)
	}
	memberWeek := booking.WeeklySchedule{
		time.Monday:   day("10:00", "16:00"),
		time.Tuesday:  day("10:00", "16:00"),
		time.Thursday: day("14:00", "19:00"),
	}
	if err := svc.SaveSchedule(ctx, member.ID, nil, memberWeek); err != nil {
		return fmt.Errorf("save member schedule: %w", err)
	}

	centerSvc := center.NewService(center.NewRepoPG(pool))
	if _, err := centerSvc.Get(ctx); err != nil {
		return fmt.Errorf("init center config: %w", err)
	}

	fmt.Printf("Seeded admin %s plus %d specialties.\n", admin.Email, len(specs))
	return nil
}

func day(start, end string) booking.DaySchedule {
	s, _ := booking.ParseTimeOfDay(start)
	e, _ := booking.ParseTimeOfDay(end)
	return booking.DaySchedule{Enabled: true, Start: s, End: e}
}

// weekdays builds a Monday-to-Friday schedule with optional per-day
// overrides.
func weekdays(start, end string, overrides map[time.Weekday][2]string) booking.WeeklySchedule {
	week := booking.WeeklySchedule{}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if o, ok := overrides[wd]; ok {
			week[wd] = day(o[0], o[1])
			continue
		}
		week[wd] = day(start, end)
	}
	return week
}
