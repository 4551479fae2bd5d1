package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, cosineSimilarity([]float64{1, 1}, []float64{0, 0}))
}

func TestCosineSimilarityClamped(t *testing.T) {
	// Accumulated float error must never escape [-1, 1].
	a := make([]float64, 768)
	for i := range a {
		a[i] = 0.1234567
	}
	sim := cosineSimilarity(a, a)
	assert.LessOrEqual(t, sim, 1.0)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestAggregateSimilarityMax(t *testing.T) {
	s := newTestScorer()
	legislation := [][]float64{{0, 1}, {1, 0}, {1, 1}}

	sim := s.aggregateSimilarity([]float64{1, 0}, legislation)

	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestAggregateSimilarityWeightedAvg(t *testing.T) {
	s := newTestScorer(WithAggregation(AggregateWeightedAvg))
	legislation := [][]float64{{1, 0}, {0, 1}}

	sim := s.aggregateSimilarity([]float64{1, 0}, legislation)

	assert.InDelta(t, 0.5, sim, 1e-9)
}

func TestAggregateSimilarityEmptyLegislation(t *testing.T) {
	s := newTestScorer()
	assert.Zero(t, s.aggregateSimilarity([]float64{1, 0}, nil))
}
