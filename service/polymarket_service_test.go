package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProbability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/will-the-act-pass", r.URL.Path)
		w.Write([]byte(`{"slug":"will-the-act-pass","question":"Will the act pass?","outcomePrices":"[\"0.65\",\"0.35\"]"}`))
	}))
	defer server.Close()

	s := NewPolymarketService(PolymarketWithBaseURL(server.URL))

	p, err := s.GetProbability(context.Background(), "will-the-act-pass")

	require.NoError(t, err)
	assert.InDelta(t, 0.65, p, 1e-9)
}

func TestGetProbabilitySendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"outcomePrices":"[\"0.5\"]"}`))
	}))
	defer server.Close()

	s := NewPolymarketService(PolymarketWithBaseURL(server.URL), PolymarketWithAPIKey("secret"))

	_, err := s.GetProbability(context.Background(), "any")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestGetProbabilityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewPolymarketService(PolymarketWithBaseURL(server.URL))

	_, err := s.GetProbability(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestGetProbabilityNoOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"slug":"x"}`))
	}))
	defer server.Close()

	s := NewPolymarketService(PolymarketWithBaseURL(server.URL))

	_, err := s.GetProbability(context.Background(), "x")

	assert.ErrorIs(t, err, ErrNoMarketOutcomes)
}

func TestFirstOutcomeProbabilityClamped(t *testing.T) {
	p, err := firstOutcomeProbability(`["1.2","0.1"]`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = firstOutcomeProbability(`["-0.3"]`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)

	_, err = firstOutcomeProbability(`["not-a-number"]`)
	assert.Error(t, err)

	_, err = firstOutcomeProbability(`[]`)
	assert.ErrorIs(t, err, ErrNoMarketOutcomes)
}
