package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedQueryNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RETRIEVAL_QUERY", req.TaskType)
		assert.Equal(t, EmbeddingDimensions, req.OutputDimensionality)
		w.Write([]byte(`{"embedding":{"values":[3,4]}}`))
	}))
	defer server.Close()

	s := NewEmbeddingService(EmbeddingWithAPIKey("k"), EmbeddingWithBaseURL(server.URL))

	embedding, err := s.EmbedQuery(context.Background(), "an act")

	require.NoError(t, err)
	require.Len(t, embedding, 2)
	assert.InDelta(t, 0.6, embedding[0], 1e-9)
	assert.InDelta(t, 0.8, embedding[1], 1e-9)

	var norm float64
	for _, v := range embedding {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"embedding":{"values":[1,0]}}`))
	}))
	defer server.Close()

	s := NewEmbeddingService(EmbeddingWithAPIKey("k"), EmbeddingWithBaseURL(server.URL))

	embedding, err := s.EmbedQuery(context.Background(), "an act")

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []float64{1, 0}, embedding)
}

func TestEmbedDoesNotRetryOnBadRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	s := NewEmbeddingService(EmbeddingWithAPIKey("k"), EmbeddingWithBaseURL(server.URL))

	_, err := s.EmbedQuery(context.Background(), "an act")

	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbedRequiresAPIKey(t *testing.T) {
	s := NewEmbeddingService(EmbeddingWithAPIKey(""))

	_, err := s.EmbedQuery(context.Background(), "an act")

	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestEmbedDocumentsBatches(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req batchEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		batchSizes = append(batchSizes, len(req.Requests))

		resp := batchEmbeddingResponse{}
		for range req.Requests {
			resp.Embeddings = append(resp.Embeddings, EmbeddingData{Values: []float64{1, 0}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewEmbeddingService(EmbeddingWithAPIKey("k"), EmbeddingWithBaseURL(server.URL))

	texts := make([]string, 150)
	for i := range texts {
		texts[i] = "sentence"
	}

	embeddings, err := s.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, embeddings, 150)
	assert.Equal(t, []int{100, 50}, batchSizes)
}
