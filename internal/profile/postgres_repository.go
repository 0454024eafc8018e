package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundose/sundose/internal/dosimetry"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a profile by user ID.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT
			user_id, skin_type, clothing_level, sunscreen_level, age,
			altitude_meters, default_lat, default_lon, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var (
		p              Profile
		skinType       int
		clothingLevel  int
		sunscreenLevel int
		age            int
		altitudeMeters float64
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&skinType,
		&clothingLevel,
		&sunscreenLevel,
		&age,
		&altitudeMeters,
		&p.DefaultLat,
		&p.DefaultLon,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p.Dosimetry = dosimetry.Profile{
		SkinType:       dosimetry.SkinType(skinType),
		Clothing:       dosimetry.ClothingLevel(clothingLevel),
		Sunscreen:      dosimetry.SunscreenLevel(sunscreenLevel),
		Age:            age,
		AltitudeMeters: altitudeMeters,
	}
	return &p, nil
}

// Upsert creates or replaces the user's profile.
func (r *PostgresRepository) Upsert(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, skin_type, clothing_level, sunscreen_level, age,
			altitude_meters, default_lat, default_lon, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			skin_type = EXCLUDED.skin_type,
			clothing_level = EXCLUDED.clothing_level,
			sunscreen_level = EXCLUDED.sunscreen_level,
			age = EXCLUDED.age,
			altitude_meters = EXCLUDED.altitude_meters,
			default_lat = EXCLUDED.default_lat,
			default_lon = EXCLUDED.default_lon,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		int(p.Dosimetry.SkinType),
		int(p.Dosimetry.Clothing),
		int(p.Dosimetry.Sunscreen),
		p.Dosimetry.Age,
		p.Dosimetry.AltitudeMeters,
		p.DefaultLat,
		p.DefaultLon,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Delete removes a profile.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
