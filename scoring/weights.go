package scoring

import (
	"math"
	"time"
)

const (
	unknownSectionWeight = 0.5
	missingDateWeight    = 0.5
	emptyTextWeight      = 0.5
	minSizeWeight        = 0.1
	charsPerToken        = 4
	epsilon              = 1e-12
)

// sectionWeight looks up the evidence weight for a section type
func (s *RiskScorer) sectionWeight(sectionType string) float64 {
	if w, ok := s.sectionWeights[sectionType]; ok {
		return w
	}
	return unknownSectionWeight
}

// recencyWeight decays exponentially with filing age in whole days. A missing
// date gets the neutral weight; a future date counts as age zero.
func (s *RiskScorer) recencyWeight(filingDate *time.Time) float64 {
	if filingDate == nil {
		return missingDateWeight
	}
	ageDays := truncateToDay(s.now()).Sub(truncateToDay(*filingDate)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return clamp(math.Exp(-s.lambdaRecency*ageDays), 0, 1)
}

// sizeWeight scales with estimated token count, saturating at tokenBase.
// Longer chunks carry more evidence, but never more than weight 1.
func (s *RiskScorer) sizeWeight(text string) float64 {
	if text == "" {
		return emptyTextWeight
	}
	tokens := float64(len(text)) / charsPerToken
	w := tokens / s.tokenBase
	if w > 1 {
		w = 1
	}
	if w < minSizeWeight {
		w = minSizeWeight
	}
	return w
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
