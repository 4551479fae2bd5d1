package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	geminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	embeddingModel      = "models/gemini-embedding-001"
	EmbeddingDimensions = 768
	embedBatchSize      = 100
	maxRetries          = 3
	initialBackoff      = time.Second
)

var ErrEmbeddingFailed = errors.New("failed to generate embedding")

// EmbeddingService generates query and document embeddings via the Gemini
// embedding API. Embeddings are unit-normalized so cosine similarity reduces
// to a dot product.
type EmbeddingService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// EmbeddingServiceOption is a functional option for EmbeddingService
type EmbeddingServiceOption func(*EmbeddingService)

// EmbeddingWithAPIKey sets the API key
func EmbeddingWithAPIKey(key string) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.apiKey = key
	}
}

// EmbeddingWithBaseURL overrides the API base URL
func EmbeddingWithBaseURL(url string) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.baseURL = url
	}
}

// EmbeddingWithHTTPClient overrides the HTTP client
func EmbeddingWithHTTPClient(client *http.Client) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.httpClient = client
	}
}

// NewEmbeddingService creates an embedding service. The API key defaults to
// GEMINI_API_KEY.
func NewEmbeddingService(opts ...EmbeddingServiceOption) *EmbeddingService {
	s := &EmbeddingService{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EmbeddingRequest represents an embedding API request
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse represents an embedding API response
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

type batchEmbeddingRequest struct {
	Requests []EmbeddingRequest `json:"requests"`
}

type batchEmbeddingResponse struct {
	Embeddings []EmbeddingData `json:"embeddings"`
}

// EmbedQuery embeds legislation or query text for retrieval
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return s.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument embeds a filing sentence for storage
func (s *EmbeddingService) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return s.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (s *EmbeddingService) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := EmbeddingRequest{
		Model: embeddingModel,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: EmbeddingDimensions,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.baseURL + "/" + embeddingModel + ":embedContent"

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			return normalizeEmbedding(apiResp.Embedding.Values), nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// EmbedDocuments embeds many filing sentences, batching requests at the API
// limit. Order is preserved.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	embeddings := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		batch, err := s.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch starting at %d: %w", start, err)
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody := batchEmbeddingRequest{
		Requests: make([]EmbeddingRequest, 0, len(texts)),
	}
	for _, text := range texts {
		reqBody.Requests = append(reqBody.Requests, EmbeddingRequest{
			Model: embeddingModel,
			Content: ContentInput{
				Parts: []PartInput{{Text: text}},
			},
			TaskType:             "RETRIEVAL_DOCUMENT",
			OutputDimensionality: EmbeddingDimensions,
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.baseURL + "/" + embeddingModel + ":batchEmbedContents"

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp batchEmbeddingResponse
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				resp.Body.Close()
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			resp.Body.Close()

			if len(apiResp.Embeddings) != len(texts) {
				return nil, fmt.Errorf("API returned %d embeddings for %d inputs", len(apiResp.Embeddings), len(texts))
			}

			embeddings := make([][]float64, 0, len(texts))
			for _, e := range apiResp.Embeddings {
				embeddings = append(embeddings, normalizeEmbedding(e.Values))
			}
			return embeddings, nil
		}

		resp.Body.Close()

		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, ErrEmbeddingFailed
}

// normalizeEmbedding scales an embedding to unit length in place
func normalizeEmbedding(embedding []float64) []float64 {
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}
	return embedding
}
