package repository

import (
	"context"
	"fmt"

	"regrisk-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LegislationRepository handles database operations for tracked legislation
type LegislationRepository struct {
	db *pgxpool.Pool
}

// NewLegislationRepository creates a new legislation repository
func NewLegislationRepository(db *pgxpool.Pool) *LegislationRepository {
	return &LegislationRepository{db: db}
}

// Create creates a new legislation record
func (r *LegislationRepository) Create(ctx context.Context, legislation *models.Legislation) error {
	query := `
		INSERT INTO legislation (
			legislation_id, title, status, text, summary, polymarket_slug, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		legislation.LegislationID,
		legislation.Title,
		legislation.Status,
		legislation.Text,
		legislation.Summary,
		legislation.PolymarketSlug,
		vectorParam(legislation.Embedding),
	).Scan(&legislation.ID, &legislation.CreatedAt, &legislation.UpdatedAt)

	return err
}

// GetByID retrieves a legislation record by ID
func (r *LegislationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Legislation, error) {
	legislation := &models.Legislation{}
	var embeddingStr *string
	query := `
		SELECT id, legislation_id, title, status, text, summary, polymarket_slug,
			embedding::text, created_at, updated_at
		FROM legislation
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&legislation.ID,
		&legislation.LegislationID,
		&legislation.Title,
		&legislation.Status,
		&legislation.Text,
		&legislation.Summary,
		&legislation.PolymarketSlug,
		&embeddingStr,
		&legislation.CreatedAt,
		&legislation.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	if embeddingStr != nil {
		embedding, err := parseVector(*embeddingStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse legislation embedding: %w", err)
		}
		legislation.Embedding = embedding
	}

	return legislation, nil
}

// Update updates a legislation record
func (r *LegislationRepository) Update(ctx context.Context, legislation *models.Legislation) error {
	query := `
		UPDATE legislation SET
			legislation_id = $2,
			title = $3,
			status = $4,
			text = $5,
			summary = $6,
			polymarket_slug = $7,
			embedding = $8::vector,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		legislation.ID,
		legislation.LegislationID,
		legislation.Title,
		legislation.Status,
		legislation.Text,
		legislation.Summary,
		legislation.PolymarketSlug,
		vectorParam(legislation.Embedding),
	).Scan(&legislation.UpdatedAt)

	return err
}

// UpdateSummary updates only the generated summary
func (r *LegislationRepository) UpdateSummary(ctx context.Context, id uuid.UUID, summary string) error {
	query := `
		UPDATE legislation SET
			summary = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, summary)
	return err
}

// List retrieves legislation records, newest first, optionally by status
func (r *LegislationRepository) List(ctx context.Context, status *models.LegislationStatus, limit, offset int) ([]*models.Legislation, error) {
	query := `
		SELECT id, legislation_id, title, status, text, summary, polymarket_slug,
			created_at, updated_at
		FROM legislation`

	var args []interface{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.Legislation
	for rows.Next() {
		legislation := &models.Legislation{}
		err := rows.Scan(
			&legislation.ID,
			&legislation.LegislationID,
			&legislation.Title,
			&legislation.Status,
			&legislation.Text,
			&legislation.Summary,
			&legislation.PolymarketSlug,
			&legislation.CreatedAt,
			&legislation.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, legislation)
	}

	return records, rows.Err()
}

// Delete deletes a legislation record
func (r *LegislationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM legislation WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
