package repository

import (
	"context"

	"regrisk-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FilingRepository handles database operations for archived filing documents
type FilingRepository struct {
	db *pgxpool.Pool
}

// NewFilingRepository creates a new filing repository
func NewFilingRepository(db *pgxpool.Pool) *FilingRepository {
	return &FilingRepository{db: db}
}

// Create creates a new filing document record
func (r *FilingRepository) Create(ctx context.Context, filing *models.FilingDocument) error {
	query := `
		INSERT INTO filing_documents (
			ticker, filing_type, filing_date, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		filing.Ticker,
		filing.FilingType,
		filing.FilingDate,
		filing.Filename,
		filing.MimeType,
		filing.Size,
		filing.StoragePath,
	).Scan(&filing.ID, &filing.CreatedAt)

	return err
}

// GetByID retrieves a filing document record by ID
func (r *FilingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FilingDocument, error) {
	filing := &models.FilingDocument{}
	query := `
		SELECT id, ticker, filing_type, filing_date, filename, mime_type, size, storage_path, created_at
		FROM filing_documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&filing.ID,
		&filing.Ticker,
		&filing.FilingType,
		&filing.FilingDate,
		&filing.Filename,
		&filing.MimeType,
		&filing.Size,
		&filing.StoragePath,
		&filing.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return filing, nil
}

// ListByTicker retrieves all archived filings for a ticker
func (r *FilingRepository) ListByTicker(ctx context.Context, ticker string) ([]*models.FilingDocument, error) {
	query := `
		SELECT id, ticker, filing_type, filing_date, filename, mime_type, size, storage_path, created_at
		FROM filing_documents
		WHERE ticker = $1
		ORDER BY filing_date DESC NULLS LAST, created_at DESC`

	rows, err := r.db.Query(ctx, query, ticker)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filings []*models.FilingDocument
	for rows.Next() {
		filing := &models.FilingDocument{}
		err := rows.Scan(
			&filing.ID,
			&filing.Ticker,
			&filing.FilingType,
			&filing.FilingDate,
			&filing.Filename,
			&filing.MimeType,
			&filing.Size,
			&filing.StoragePath,
			&filing.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		filings = append(filings, filing)
	}

	return filings, rows.Err()
}

// Delete deletes a filing document record
func (r *FilingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM filing_documents WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
