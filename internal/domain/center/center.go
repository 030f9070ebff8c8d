// Package center holds the clinic-wide presentation settings shown on the
// public booking page. There is a single config row, created lazily with
// defaults on first read.
package center

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultName seeds the config row when nothing was configured yet.
const DefaultName = "Centro de Salud"

type Config struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	Description string    `db:"description" json:"description"`
	Vision      string    `db:"vision" json:"vision"`
	LogoURL     string    `db:"logo_url" json:"logo_url"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Repository persists the single config row.
type Repository interface {
	// Get returns the row, or (nil, nil) when none exists yet.
	Get(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg *Config) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the clinic config, creating the default row on first access.
func (s *Service) Get(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	cfg = &Config{Name: DefaultName}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Input carries a partial update; nil fields stay untouched.
type Input struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
	Vision      *string `json:"vision"`
	LogoURL     *string `json:"logo_url"`
}

// Update applies the non-nil fields of in. A blank name falls back to the
// default so the public page never renders without a title.
func (s *Service) Update(ctx context.Context, in Input) (*Config, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			name = DefaultName
		}
		cfg.Name = name
	}
	if in.Address != nil {
		cfg.Address = *in.Address
	}
	if in.Phone != nil {
		cfg.Phone = *in.Phone
	}
	if in.Email != nil {
		cfg.Email = *in.Email
	}
	if in.Description != nil {
		cfg.Description = *in.Description
	}
	if in.Vision != nil {
		cfg.Vision = *in.Vision
	}
	if in.LogoURL != nil {
		cfg.LogoURL = *in.LogoURL
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
