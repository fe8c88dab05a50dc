package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmail-engine/internal/domain"
)

func ext(company string, src domain.Source, position string) domain.ExtractionResult {
	return domain.ExtractionResult{Company: company, CompanySource: src, Position: position}
}

func TestScore(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	tests := []struct {
		name  string
		ext   domain.ExtractionResult
		cls   domain.ClassificationResult
		score float64
		level domain.Level
	}{
		{"everything", ext("Acme", domain.SourceDomain, "Engineer"), domain.ClassificationResult{Matches: 3}, 1.10, domain.LevelHigh},
		{"domain company and two matches", ext("Perplexity", domain.SourceDomain, domain.UnspecifiedPosition), domain.ClassificationResult{Matches: 2}, 0.80, domain.LevelHigh},
		{"subject company and one match", ext("Gem", domain.SourceSubject, domain.UnspecifiedPosition), domain.ClassificationResult{Matches: 1}, 0.60, domain.LevelMedium},
		{"exactly high", ext("Gem", domain.SourceSubject, domain.UnspecifiedPosition), domain.ClassificationResult{Matches: 2}, 0.70, domain.LevelHigh},
		{"exactly medium", ext(domain.UnknownCompany, domain.SourceNone, "Engineer"), domain.ClassificationResult{Matches: 1}, 0.40, domain.LevelMedium},
		{"nothing", ext(domain.UnknownCompany, domain.SourceNone, domain.UnspecifiedPosition), domain.ClassificationResult{}, 0, domain.LevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.ext, tt.cls)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.level, got.Level)
		})
	}
}

func TestScoreIsMonotonic(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	companies := []domain.ExtractionResult{
		ext(domain.UnknownCompany, domain.SourceNone, ""),
		ext("Acme", domain.SourceBody, ""),
		ext("Acme", domain.SourceDomain, ""),
	}
	positions := []string{domain.UnspecifiedPosition, "Engineer"}

	for ci := range companies {
		for pi := range positions {
			for m := 0; m <= 5; m++ {
				base := companies[ci]
				base.Position = positions[pi]
				score := s.Score(base, domain.ClassificationResult{Matches: m}).Score

				// more matches
				more := s.Score(base, domain.ClassificationResult{Matches: m + 1}).Score
				assert.GreaterOrEqual(t, more, score)

				// known position
				withPos := base
				withPos.Position = "Engineer"
				assert.GreaterOrEqual(t, s.Score(withPos, domain.ClassificationResult{Matches: m}).Score, score)

				// better company
				if ci+1 < len(companies) {
					better := companies[ci+1]
					better.Position = positions[pi]
					assert.GreaterOrEqual(t, s.Score(better, domain.ClassificationResult{Matches: m}).Score, score)
				}
			}
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	s := NewScorer(Thresholds{High: 0.9, Medium: 0.5})
	got := s.Score(ext("Acme", domain.SourceDomain, domain.UnspecifiedPosition), domain.ClassificationResult{Matches: 2})
	assert.Equal(t, domain.LevelMedium, got.Level)
}
