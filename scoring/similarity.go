package scoring

import "math"

// cosineSimilarity computes the cosine of the angle between two vectors,
// clamped to [-1, 1]. Mismatched lengths or zero-norm vectors yield 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA < epsilon || normB < epsilon {
		return 0
	}

	return clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1)
}

// aggregateSimilarity reduces a chunk's similarity against every legislation
// embedding to a single value using the configured method. "max" measures the
// strongest overlap with any part of the bill; "weighted_avg" measures overall
// alignment.
func (s *RiskScorer) aggregateSimilarity(chunkEmbedding []float64, legislationEmbeddings [][]float64) float64 {
	if len(legislationEmbeddings) == 0 {
		return 0
	}

	switch s.aggregation {
	case AggregateWeightedAvg:
		var sum float64
		for _, emb := range legislationEmbeddings {
			sum += cosineSimilarity(chunkEmbedding, emb)
		}
		return sum / float64(len(legislationEmbeddings))
	default:
		best := math.Inf(-1)
		for _, emb := range legislationEmbeddings {
			if sim := cosineSimilarity(chunkEmbedding, emb); sim > best {
				best = sim
			}
		}
		return best
	}
}
