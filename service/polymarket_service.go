package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

const polymarketBaseURL = "https://gamma-api.polymarket.com"

var (
	ErrMarketNotFound   = errors.New("polymarket market not found")
	ErrNoMarketOutcomes = errors.New("polymarket market has no outcome prices")
)

// PolymarketService fetches enactment probabilities from the Polymarket
// Gamma API. Lookups are best-effort: callers fall back to a supplied or
// default probability when the market is unavailable.
type PolymarketService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// PolymarketServiceOption is a functional option for PolymarketService
type PolymarketServiceOption func(*PolymarketService)

// PolymarketWithAPIKey sets the API key (optional, public endpoints work
// without one)
func PolymarketWithAPIKey(key string) PolymarketServiceOption {
	return func(s *PolymarketService) {
		s.apiKey = key
	}
}

// PolymarketWithBaseURL overrides the API base URL
func PolymarketWithBaseURL(url string) PolymarketServiceOption {
	return func(s *PolymarketService) {
		s.baseURL = url
	}
}

// PolymarketWithHTTPClient overrides the HTTP client
func PolymarketWithHTTPClient(client *http.Client) PolymarketServiceOption {
	return func(s *PolymarketService) {
		s.httpClient = client
	}
}

// NewPolymarketService creates a Polymarket client. The API key defaults to
// POLYMARKET_API_KEY; the base URL to the public Gamma API.
func NewPolymarketService(opts ...PolymarketServiceOption) *PolymarketService {
	s := &PolymarketService{
		apiKey:     os.Getenv("POLYMARKET_API_KEY"),
		baseURL:    polymarketBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// gammaMarket is the subset of the Gamma market payload we read.
// outcomePrices arrives as a JSON-encoded string array.
type gammaMarket struct {
	Slug          string `json:"slug"`
	Question      string `json:"question"`
	OutcomePrices string `json:"outcomePrices"`
}

// GetProbability returns the probability of the market's first outcome
// (convention: "Yes") in [0, 1]
func (s *PolymarketService) GetProbability(ctx context.Context, slug string) (float64, error) {
	url := fmt.Sprintf("%s/markets/%s", s.baseURL, slug)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch market %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrMarketNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("polymarket API error: %d", resp.StatusCode)
	}

	var market gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&market); err != nil {
		return 0, fmt.Errorf("failed to decode market: %w", err)
	}

	return firstOutcomeProbability(market.OutcomePrices)
}

// firstOutcomeProbability parses the encoded price array and clamps the
// first price to a valid probability
func firstOutcomeProbability(encoded string) (float64, error) {
	if encoded == "" {
		return 0, ErrNoMarketOutcomes
	}

	var prices []string
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil {
		return 0, fmt.Errorf("failed to parse outcome prices: %w", err)
	}
	if len(prices) == 0 {
		return 0, ErrNoMarketOutcomes
	}

	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid outcome price %q: %w", prices[0], err)
	}

	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, nil
}
