package scoring

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"regrisk-backend/models"
)

func TestSectionWeight(t *testing.T) {
	s := newTestScorer()

	assert.Equal(t, 1.0, s.sectionWeight(models.SectionRiskFactors))
	assert.Equal(t, 0.95, s.sectionWeight(models.SectionSignificantEvents))
	assert.Equal(t, 0.6, s.sectionWeight(models.SectionBusiness))
	assert.Equal(t, 0.5, s.sectionWeight(models.SectionOther))
	assert.Equal(t, 0.5, s.sectionWeight("management_discussion"))
	assert.Equal(t, 0.5, s.sectionWeight(""))
}

func TestRecencyWeight(t *testing.T) {
	s := newTestScorer()

	today := testNow
	assert.InDelta(t, 1.0, s.recencyWeight(&today), 1e-9)

	// Timestamps truncate to whole days, so earlier the same day is age 0.
	sameDay := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, s.recencyWeight(&sameDay), 1e-9)

	assert.InDelta(t, 0.5, s.recencyWeight(nil), 1e-9)

	future := testNow.AddDate(0, 0, 30)
	assert.InDelta(t, 1.0, s.recencyWeight(&future), 1e-9)

	thousandDays := testNow.AddDate(0, 0, -1000)
	assert.InDelta(t, math.Exp(-1), s.recencyWeight(&thousandDays), 1e-9)

	yearOld := testNow.AddDate(0, 0, -365)
	assert.InDelta(t, math.Exp(-0.365), s.recencyWeight(&yearOld), 1e-9)
}

func TestSizeWeight(t *testing.T) {
	s := newTestScorer()

	assert.InDelta(t, 0.5, s.sizeWeight(""), 1e-9)
	// 40 chars ~ 10 tokens -> 0.01, floored at 0.1
	assert.InDelta(t, 0.1, s.sizeWeight(strings.Repeat("a", 40)), 1e-9)
	// 2000 chars ~ 500 tokens -> 0.5
	assert.InDelta(t, 0.5, s.sizeWeight(strings.Repeat("a", 2000)), 1e-9)
	// saturation at 4000 chars ~ 1000 tokens
	assert.InDelta(t, 1.0, s.sizeWeight(strings.Repeat("a", 4000)), 1e-9)
	assert.InDelta(t, 1.0, s.sizeWeight(strings.Repeat("a", 50000)), 1e-9)
}

func TestRecencyDecayOption(t *testing.T) {
	s := newTestScorer(WithRecencyDecay(0.01))

	hundredDays := testNow.AddDate(0, 0, -100)
	assert.InDelta(t, math.Exp(-1), s.recencyWeight(&hundredDays), 1e-9)
}
