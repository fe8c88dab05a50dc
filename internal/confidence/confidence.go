// Package confidence scores how much a pattern-only reading of a message
// can be trusted.
package confidence

import "jobmail-engine/internal/domain"

// Weights are in hundredths so sums stay exact.
const (
	companyKnown  = 40
	companyDomain = 10
	positionKnown = 20
	matchesThree  = 40
	matchesTwo    = 30
	matchesOne    = 20
)

type Thresholds struct {
	High   float64
	Medium float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.70, Medium: 0.40}
}

type Scorer struct {
	high, medium int
}

func NewScorer(t Thresholds) *Scorer {
	if t.High <= 0 && t.Medium <= 0 {
		t = DefaultThresholds()
	}
	return &Scorer{high: toCenths(t.High), medium: toCenths(t.Medium)}
}

// Score is a pure function of its inputs.
func (s *Scorer) Score(ext domain.ExtractionResult, cls domain.ClassificationResult) domain.ConfidenceResult {
	n := points(ext, cls)
	return domain.ConfidenceResult{Score: float64(n) / 100, Level: s.level(n)}
}

func points(ext domain.ExtractionResult, cls domain.ClassificationResult) int {
	n := 0
	if ext.CompanyKnown() {
		n += companyKnown
		if ext.CompanySource == domain.SourceDomain {
			n += companyDomain
		}
	}
	if ext.PositionKnown() {
		n += positionKnown
	}
	switch {
	case cls.Matches >= 3:
		n += matchesThree
	case cls.Matches == 2:
		n += matchesTwo
	case cls.Matches == 1:
		n += matchesOne
	}
	return n
}

func (s *Scorer) level(n int) domain.Level {
	switch {
	case n >= s.high:
		return domain.LevelHigh
	case n >= s.medium:
		return domain.LevelMedium
	}
	return domain.LevelLow
}

func toCenths(f float64) int {
	return int(f*100 + 0.5)
}
