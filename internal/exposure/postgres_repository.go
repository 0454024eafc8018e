package exposure

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundose/sundose/internal/dosimetry"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a completed session.
func (r *PostgresRepository) Create(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO exposure_sessions (
			id, user_id, start_time, end_time,
			accumulated_iu, average_uv, peak_uv,
			skin_type, clothing_level, sunscreen_level, age, altitude_meters,
			lat, lon, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.StartTime,
		s.EndTime,
		s.AccumulatedIU,
		s.AverageUV,
		s.PeakUV,
		int(s.Profile.SkinType),
		int(s.Profile.Clothing),
		int(s.Profile.Sunscreen),
		s.Profile.Age,
		s.Profile.AltitudeMeters,
		s.Lat,
		s.Lon,
		createdAt,
	)
	return err
}

// List returns completed sessions for a user, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	const baseQuery = `
		SELECT
			id, user_id, start_time, end_time,
			accumulated_iu, average_uv, peak_uv,
			skin_type, clothing_level, sunscreen_level, age, altitude_meters,
			lat, lon, created_at
		FROM exposure_sessions
		WHERE user_id = $1
	`

	var (
		query string
		args  []interface{}
	)
	if opts.Cursor != "" {
		query = baseQuery +
			` AND start_time < (SELECT start_time FROM exposure_sessions WHERE id = $2)
			ORDER BY start_time DESC LIMIT $3`
		args = []interface{}{userID, opts.Cursor, fetchLimit}
	} else {
		query = baseQuery + ` ORDER BY start_time DESC LIMIT $2`
		args = []interface{}{userID, fetchLimit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Session
	for rows.Next() {
		var (
			s                             Session
			skinType, clothing, sunscreen int
		)
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.StartTime,
			&s.EndTime,
			&s.AccumulatedIU,
			&s.AverageUV,
			&s.PeakUV,
			&skinType,
			&clothing,
			&sunscreen,
			&s.Profile.Age,
			&s.Profile.AltitudeMeters,
			&s.Lat,
			&s.Lon,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.Profile.SkinType = dosimetry.SkinType(skinType)
		s.Profile.Clothing = dosimetry.ClothingLevel(clothing)
		s.Profile.Sunscreen = dosimetry.SunscreenLevel(sunscreen)
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// DailyTotals returns accumulated IU per UTC calendar day.
func (r *PostgresRepository) DailyTotals(ctx context.Context, userID string, since time.Time) (map[time.Time]float64, error) {
	query := `
		SELECT date_trunc('day', end_time AT TIME ZONE 'UTC') AS day,
		       SUM(accumulated_iu)
		FROM exposure_sessions
		WHERE user_id = $1 AND end_time >= $2
		GROUP BY day
	`

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[time.Time]float64)
	for rows.Next() {
		var (
			day time.Time
			iu  float64
		)
		if err := rows.Scan(&day, &iu); err != nil {
			return nil, err
		}
		totals[day.UTC()] = iu
	}
	return totals, rows.Err()
}
