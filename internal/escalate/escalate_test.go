package escalate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobmail-engine/internal/confidence"
	"jobmail-engine/internal/domain"
)

func TestShouldEscalate(t *testing.T) {
	known := domain.ExtractionResult{Company: "Acme", CompanySource: domain.SourceDomain, Position: "Engineer"}
	unknown := domain.ExtractionResult{Company: domain.UnknownCompany, CompanySource: domain.SourceNone}
	high := domain.ConfidenceResult{Score: 0.9, Level: domain.LevelHigh}
	low := domain.ConfidenceResult{Score: 0.2, Level: domain.LevelLow}

	tests := []struct {
		name    string
		conf    domain.ConfidenceResult
		ext     domain.ExtractionResult
		cls     domain.ClassificationResult
		enabled bool
		want    bool
	}{
		{"disabled", low, unknown, domain.ClassificationResult{Status: domain.StatusApplied}, false, false},
		{"low confidence", low, known, domain.ClassificationResult{Status: domain.StatusRejected, Matches: 3}, true, true},
		{"unknown company", high, unknown, domain.ClassificationResult{Status: domain.StatusRejected, Matches: 3}, true, true},
		{"weak applied", high, known, domain.ClassificationResult{Status: domain.StatusApplied, Matches: 1}, true, true},
		{"confident applied", high, known, domain.ClassificationResult{Status: domain.StatusApplied, Matches: 2}, true, false},
		{"confident rejection", high, known, domain.ClassificationResult{Status: domain.StatusRejected, Matches: 1}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEscalate(tt.conf, tt.ext, tt.cls, tt.enabled))
		})
	}
}

func TestMerge(t *testing.T) {
	cand := Candidate{Company: "Globex", Position: "Data Engineer", Status: domain.StatusInterviewing}

	t.Run("domain company kept", func(t *testing.T) {
		ext := domain.ExtractionResult{Company: "Acme", CompanySource: domain.SourceDomain, Position: domain.UnspecifiedPosition}
		gotExt, _ := Merge(ext, domain.ClassificationResult{Status: domain.StatusApplied, Matches: 2}, cand)
		assert.Equal(t, "Acme", gotExt.Company)
		assert.Equal(t, domain.SourceDomain, gotExt.CompanySource)
		assert.Equal(t, "Data Engineer", gotExt.Position)
		assert.Equal(t, domain.SourceAI, gotExt.PositionSource)
	})

	t.Run("known subject company kept", func(t *testing.T) {
		ext := domain.ExtractionResult{Company: "Initech", CompanySource: domain.SourceSubject, Position: "Analyst", PositionSource: domain.SourceBody}
		gotExt, _ := Merge(ext, domain.ClassificationResult{}, cand)
		assert.Equal(t, "Initech", gotExt.Company)
		assert.Equal(t, "Analyst", gotExt.Position)
	})

	t.Run("unknown company filled", func(t *testing.T) {
		ext := domain.ExtractionResult{Company: domain.UnknownCompany, CompanySource: domain.SourceNone, Position: domain.UnspecifiedPosition}
		gotExt, _ := Merge(ext, domain.ClassificationResult{}, cand)
		assert.Equal(t, "Globex", gotExt.Company)
		assert.Equal(t, domain.SourceAI, gotExt.CompanySource)
	})

	t.Run("candidate sentinel does not fill", func(t *testing.T) {
		ext := domain.ExtractionResult{Company: domain.UnknownCompany, CompanySource: domain.SourceNone, Position: domain.UnspecifiedPosition}
		gotExt, _ := Merge(ext, domain.ClassificationResult{}, Candidate{Company: "unknown", Position: "Not specified"})
		assert.Equal(t, domain.UnknownCompany, gotExt.Company)
		assert.Equal(t, domain.UnspecifiedPosition, gotExt.Position)
	})

	t.Run("strong pattern status kept", func(t *testing.T) {
		_, cls := Merge(domain.ExtractionResult{}, domain.ClassificationResult{Status: domain.StatusRejected, Matches: 2}, cand)
		assert.Equal(t, domain.ClassificationResult{Status: domain.StatusRejected, Matches: 2}, cls)
	})

	t.Run("weak pattern status replaced", func(t *testing.T) {
		_, cls := Merge(domain.ExtractionResult{}, domain.ClassificationResult{Status: domain.StatusApplied, Matches: 1}, cand)
		assert.Equal(t, domain.ClassificationResult{Status: domain.StatusInterviewing, Matches: 1}, cls)
	})

	t.Run("invalid candidate status falls back to applied", func(t *testing.T) {
		_, cls := Merge(domain.ExtractionResult{}, domain.ClassificationResult{Status: domain.StatusApplied}, Candidate{Status: "maybe"})
		assert.Equal(t, domain.StatusApplied, cls.Status)
	})
}

type fakeClassifier struct {
	cand  Candidate
	err   error
	calls int
}

func (f *fakeClassifier) Classify(context.Context, string, string, string) (Candidate, error) {
	f.calls++
	return f.cand, f.err
}

func weakAnalysis() domain.Analysis {
	ext := domain.ExtractionResult{
		Company: domain.UnknownCompany, CompanySource: domain.SourceNone,
		Position: domain.UnspecifiedPosition, PositionSource: domain.SourceNone,
	}
	cls := domain.ClassificationResult{Status: domain.StatusApplied}
	return domain.Analysis{
		Extraction:     ext,
		Classification: cls,
		Confidence:     confidence.NewScorer(confidence.DefaultThresholds()).Score(ext, cls),
	}
}

func TestEscalatorApply(t *testing.T) {
	scorer := confidence.NewScorer(confidence.DefaultThresholds())
	msg := domain.Message{ID: "<1@x>", From: "noreply@greenhouse.io", Subject: "Update", Body: "..."}

	t.Run("merged", func(t *testing.T) {
		ai := &fakeClassifier{cand: Candidate{Company: "Globex", Position: "Software Engineer", Status: domain.StatusInterviewing}}
		got, out := New(ai, scorer, true, zap.NewNop()).Apply(context.Background(), msg, weakAnalysis())

		assert.Equal(t, Merged, out)
		assert.Equal(t, domain.MethodHybrid, got.Method)
		assert.Equal(t, "Globex", got.Extraction.Company)
		assert.Equal(t, domain.StatusInterviewing, got.Classification.Status)
		// 0.40 company + 0.20 position + 0.20 single match
		assert.InDelta(t, 0.80, got.Confidence.Score, 1e-9)
		assert.Equal(t, domain.LevelHigh, got.Confidence.Level)
	})

	t.Run("failure keeps pattern result", func(t *testing.T) {
		ai := &fakeClassifier{err: errors.New("connection refused")}
		in := weakAnalysis()
		got, out := New(ai, scorer, true, zap.NewNop()).Apply(context.Background(), msg, in)

		assert.Equal(t, Failed, out)
		assert.Equal(t, domain.MethodAIFailed, got.Method)
		assert.Equal(t, in.Extraction, got.Extraction)
		assert.Equal(t, in.Classification, got.Classification)
		assert.Equal(t, in.Confidence, got.Confidence)
	})

	t.Run("disabled", func(t *testing.T) {
		ai := &fakeClassifier{}
		got, out := New(ai, scorer, false, nil).Apply(context.Background(), msg, weakAnalysis())

		assert.Equal(t, Skipped, out)
		assert.Equal(t, domain.MethodPattern, got.Method)
		assert.Zero(t, ai.calls)
	})

	t.Run("nil classifier disables escalation", func(t *testing.T) {
		_, out := New(nil, scorer, true, nil).Apply(context.Background(), msg, weakAnalysis())
		require.Equal(t, Skipped, out)
	})
}
