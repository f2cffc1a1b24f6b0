package trip

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Days, original days and metadata are stored as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL itinerary repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectColumns = `
	id, user_id, name, description, destination, country,
	date, normalized_date, duration,
	days, original_days, metadata,
	created_at, updated_at
`

// Get retrieves an itinerary by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*SavedItinerary, error) {
	query := `SELECT ` + selectColumns + ` FROM itineraries WHERE id = $1`
	return r.scanItinerary(r.pool.QueryRow(ctx, query, id))
}

// GetByUserAndID retrieves an itinerary owned by userID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, id string) (*SavedItinerary, error) {
	query := `SELECT ` + selectColumns + ` FROM itineraries WHERE id = $1 AND user_id = $2`
	return r.scanItinerary(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *PostgresRepository) scanItinerary(row pgx.Row) (*SavedItinerary, error) {
	var it SavedItinerary
	err := row.Scan(
		&it.ID,
		&it.UserID,
		&it.Name,
		&it.Description,
		&it.Destination,
		&it.Country,
		&it.Date,
		&it.NormalizedDate,
		&it.Duration,
		&it.Days,
		&it.OriginalDays,
		&it.Metadata,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &it, nil
}

// List retrieves a user's itineraries, newest first. The cursor is the ID of
// the last item already returned.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := listLimit(opts)
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT ` + selectColumns + `
		FROM itineraries
		WHERE user_id = $1
		  AND ($2::text = '' OR (created_at, id) < (
			SELECT created_at, id FROM itineraries WHERE id = $2::text
		  ))
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, opts.Cursor, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SavedItinerary
	for rows.Next() {
		it, err := r.scanItinerary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
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

// Create inserts a new itinerary.
func (r *PostgresRepository) Create(ctx context.Context, it *SavedItinerary) error {
	query := `
		INSERT INTO itineraries (
			id, user_id, name, description, destination, country,
			date, normalized_date, duration,
			days, original_days, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		it.ID,
		it.UserID,
		it.Name,
		it.Description,
		it.Destination,
		it.Country,
		it.Date,
		it.NormalizedDate,
		it.Duration,
		it.Days,
		it.OriginalDays,
		it.Metadata,
		it.CreatedAt,
		it.UpdatedAt,
	)
	return err
}

// Update updates the editable fields of an itinerary. original_days is never written.
func (r *PostgresRepository) Update(ctx context.Context, it *SavedItinerary) error {
	query := `
		UPDATE itineraries SET
			name = $2,
			description = $3,
			date = $4,
			normalized_date = $5,
			days = $6,
			metadata = $7,
			updated_at = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		it.ID,
		it.Name,
		it.Description,
		it.Date,
		it.NormalizedDate,
		it.Days,
		it.Metadata,
		it.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrTripNotFound
	}

	return nil
}

// Delete deletes an itinerary by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1`, id)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
