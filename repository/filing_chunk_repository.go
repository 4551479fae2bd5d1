package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"regrisk-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmbeddingDim is the expected embedding dimensionality (Gemini, truncated)
const EmbeddingDim = 768

// FilingChunkRepository handles database operations for filing sentence chunks
type FilingChunkRepository struct {
	db *pgxpool.Pool
}

// NewFilingChunkRepository creates a new filing chunk repository
func NewFilingChunkRepository(db *pgxpool.Pool) *FilingChunkRepository {
	return &FilingChunkRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// vectorParam formats an embedding for a nullable vector column
func vectorParam(embedding []float64) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return formatVector(embedding)
}

// parseVector parses a pgvector text representation back into a slice
func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	embedding := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		embedding[i] = v
	}
	return embedding, nil
}

// SearchSimilar performs a vector search for filing chunks near the query
// embedding, most similar first. Similarity is cosine (1 - distance).
// ticker: optional filter, empty matches all companies
// topK: maximum number of chunks to return
func (r *FilingChunkRepository) SearchSimilar(
	ctx context.Context,
	embedding []float64,
	ticker string,
	topK int,
) ([]models.ChunkMatch, error) {
	if len(embedding) != EmbeddingDim {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDim, len(embedding))
	}

	vectorStr := formatVector(embedding)

	var tickerFilter string
	var args []interface{}
	if ticker == "" {
		tickerFilter = "TRUE"
		args = []interface{}{vectorStr, topK}
	} else {
		tickerFilter = "ticker = $2"
		args = []interface{}{vectorStr, ticker, topK}
	}

	query := fmt.Sprintf(`
		SELECT
			id,
			ticker,
			company_name,
			section_type,
			section_title,
			filing_type,
			filing_date,
			sentence_idx,
			sentence,
			1 - (embedding <=> $1::vector) AS similarity
		FROM filing_chunks
		WHERE %s
		ORDER BY
			embedding <=> $1::vector
		LIMIT $%d`, tickerFilter, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filing chunks: %w", err)
	}
	defer rows.Close()

	var matches []models.ChunkMatch
	for rows.Next() {
		var m models.ChunkMatch
		err := rows.Scan(
			&m.ID,
			&m.Ticker,
			&m.CompanyName,
			&m.SectionType,
			&m.SectionTitle,
			&m.FilingType,
			&m.FilingDate,
			&m.SentenceIdx,
			&m.Sentence,
			&m.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan filing chunk: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filing chunks: %w", err)
	}

	return matches, nil
}

// ListTickers returns the distinct tickers present in the chunk store
func (r *FilingChunkRepository) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT ticker FROM filing_chunks ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

// InsertBatch inserts filing chunks in a single transaction. Used by the
// ingest CLI.
func (r *FilingChunkRepository) InsertBatch(ctx context.Context, chunks []models.FilingChunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO filing_chunks (
			ticker, company_name, section_type, section_title,
			filing_type, filing_date, sentence_idx, sentence, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)`

	for _, chunk := range chunks {
		if len(chunk.Embedding) != EmbeddingDim {
			return fmt.Errorf("chunk %s/%d: embedding must be %d dimensions, got %d",
				chunk.Ticker, chunk.SentenceIdx, EmbeddingDim, len(chunk.Embedding))
		}
		batch.Queue(query,
			chunk.Ticker,
			chunk.CompanyName,
			chunk.SectionType,
			chunk.SectionTitle,
			chunk.FilingType,
			chunk.FilingDate,
			chunk.SentenceIdx,
			chunk.Sentence,
			formatVector(chunk.Embedding),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert filing chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}
