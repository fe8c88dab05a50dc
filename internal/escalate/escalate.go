// Package escalate decides when a message is too uncertain for the pattern
// pipeline alone, asks a secondary AI classifier about it, and merges the
// answer back field by field.
package escalate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobmail-engine/internal/confidence"
	"jobmail-engine/internal/domain"
)

// Candidate is a best-effort reading from the secondary classifier. Empty
// fields mean the classifier could not tell.
type Candidate struct {
	Company  string
	Position string
	Status   domain.Status
}

// Classifier is the secondary classifier. Implementations own prompting,
// transport, timeouts and retries.
type Classifier interface {
	Classify(ctx context.Context, from, subject, body string) (Candidate, error)
}

// ShouldEscalate reports whether the secondary classifier should be asked.
func ShouldEscalate(conf domain.ConfidenceResult, ext domain.ExtractionResult, cls domain.ClassificationResult, enabled bool) bool {
	if !enabled {
		return false
	}
	if conf.Level == domain.LevelLow {
		return true
	}
	if !ext.CompanyKnown() {
		return true
	}
	return cls.Status == domain.StatusApplied && cls.Matches < 2
}

// Merge combines the pattern result with a candidate:
//   - company: a domain-sourced company is kept, otherwise the candidate only fills "Unknown";
//   - position: the candidate only fills "Not specified";
//   - status: kept when at least two patterns fired, otherwise taken from the
//     candidate (Applied when the candidate has none). An adopted status
//     counts as a single match.
func Merge(ext domain.ExtractionResult, cls domain.ClassificationResult, cand Candidate) (domain.ExtractionResult, domain.ClassificationResult) {
	if ext.CompanySource != domain.SourceDomain && !ext.CompanyKnown() && known(cand.Company, domain.UnknownCompany) {
		ext.Company = strings.TrimSpace(cand.Company)
		ext.CompanySource = domain.SourceAI
	}
	if !ext.PositionKnown() && known(cand.Position, domain.UnspecifiedPosition) {
		ext.Position = strings.TrimSpace(cand.Position)
		ext.PositionSource = domain.SourceAI
	}
	if cls.Matches < 2 {
		st := cand.Status
		if !st.Valid() {
			st = domain.StatusApplied
		}
		cls = domain.ClassificationResult{Status: st, Matches: 1}
	}
	return ext, cls
}

func known(v, sentinel string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, sentinel)
}

type Outcome int

const (
	Skipped Outcome = iota
	Merged
	Failed
)

// Escalator wires ShouldEscalate, the classifier and Merge together.
type Escalator struct {
	ai      Classifier
	scorer  *confidence.Scorer
	enabled bool
	log     *zap.Logger
}

func New(ai Classifier, scorer *confidence.Scorer, enabled bool, log *zap.Logger) *Escalator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Escalator{ai: ai, scorer: scorer, enabled: enabled && ai != nil, log: log}
}

// Apply never returns an error: a failed call leaves the pattern result in
// place and marks the method as ai_failed.
func (e *Escalator) Apply(ctx context.Context, msg domain.Message, a domain.Analysis) (domain.Analysis, Outcome) {
	if a.Method == "" {
		a.Method = domain.MethodPattern
	}
	if !ShouldEscalate(a.Confidence, a.Extraction, a.Classification, e.enabled) {
		return a, Skipped
	}

	cand, err := e.ai.Classify(ctx, msg.From, msg.Subject, msg.Text())
	if err != nil {
		e.log.Warn("secondary classifier failed",
			zap.String("message_id", msg.ID),
			zap.Error(err))
		a.Method = domain.MethodAIFailed
		return a, Failed
	}

	a.Extraction, a.Classification = Merge(a.Extraction, a.Classification, cand)
	a.Confidence = e.scorer.Score(a.Extraction, a.Classification)
	a.Method = domain.MethodHybrid

	e.log.Debug("secondary classifier merged",
		zap.String("message_id", msg.ID),
		zap.String("company", a.Extraction.Company),
		zap.String("status", string(a.Classification.Status)),
		zap.String("confidence", string(a.Confidence.Level)))
	return a, Merged
}
