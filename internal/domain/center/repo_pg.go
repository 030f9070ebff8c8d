package center

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinibook/clinibook/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const configCols = `id, name, address, phone, email, description, vision, logo_url, updated_at`

func (r *repoPG) Get(ctx context.Context) (*Config, error) {
	var cfg Config
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+configCols+` FROM center_config ORDER BY updated_at LIMIT 1`).
		Scan(&cfg.ID, &cfg.Name, &cfg.Address, &cfg.Phone, &cfg.Email,
			&cfg.Description, &cfg.Vision, &cfg.LogoURL, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get center config: %w", err)
	}
	return &cfg, nil
}

func (r *repoPG) Save(ctx context.Context, cfg *Config) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO center_config (id, name, address, phone, email, description, vision, logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			description = EXCLUDED.description,
			vision = EXCLUDED.vision,
			logo_url = EXCLUDED.logo_url,
			updated_at = now()`,
		cfg.ID, cfg.Name, cfg.Address, cfg.Phone, cfg.Email, cfg.Description, cfg.Vision, cfg.LogoURL)
	if err != nil {
		return fmt.Errorf("save center config: %w", err)
	}
	return nil
}
