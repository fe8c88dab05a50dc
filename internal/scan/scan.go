// Package scan runs the mailbox pipeline end to end: search, analyse in
// parallel, then escalate, reconcile and decide deletion one message at a
// time in date order.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmail-engine/internal/classify"
	"jobmail-engine/internal/confidence"
	"jobmail-engine/internal/deletion"
	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/escalate"
	"jobmail-engine/internal/extract"
	"jobmail-engine/internal/mailbox"
	"jobmail-engine/internal/reconcile"
	"jobmail-engine/internal/store"
)

type Mailbox interface {
	Search(ctx context.Context, q mailbox.Query) ([]domain.Message, error)
	Trash(ctx context.Context, msgs []domain.Message) error
	Restore(ctx context.Context, messageIDs []string) ([]string, error)
}

type Store interface {
	reconcile.Store
	RememberEmployerDomain(ctx context.Context, employer, domain string) error
	SaveBatch(ctx context.Context, b store.DeletionBatch) error
	LastBatch(ctx context.Context) (store.DeletionBatch, error)
	MarkRestored(ctx context.Context, batchID string, messageIDs []string, now time.Time) error
}

const (
	ReasonStarred        = "starred"
	ReasonStatusDisabled = "status not configured for deletion"
	ReasonDeletionOff    = "deletion disabled"
	ReasonStoreFailed    = "store write failed"

	defaultWorkers = 4
)

type Options struct {
	Since   time.Time
	Max     int
	Terms   []mailbox.Term
	Preview bool
	Workers int

	DeletionEnabled bool
	DeleteApplied   bool
	DeleteRejected  bool
}

// Item is what happened to one message.
type Item struct {
	Message  domain.Message
	Analysis domain.Analysis
	Outcome  reconcile.Outcome // empty when the store write failed
	Replayed bool
	Record   domain.ApplicationRecord
	Decision domain.DeletionDecision
	Err      error
}

type Summary struct {
	Processed         int                   `json:"processed"`
	Created           int                   `json:"created"`
	Updated           int                   `json:"updated"`
	Conflicts         int                   `json:"conflicts"`
	Replayed          int                   `json:"replayed"`
	LowConfidence     int                   `json:"lowConfidence"` // records, not messages
	Escalations       int                   `json:"escalations"`
	EscalationFailure int                   `json:"escalationFailures"`
	StoreFailures     int                   `json:"storeFailures"`
	ToDelete          int                   `json:"toDelete"`
	Kept              int                   `json:"kept"`
	ByStatus          map[domain.Status]int `json:"byStatus"`

	levels map[string]domain.Level // stored confidence per touched record
}

type Report struct {
	Preview bool
	Items   []Item
	Summary Summary
}

// Deletable returns the messages the scan decided to trash.
func (r Report) Deletable() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Decision.Delete {
			out = append(out, it)
		}
	}
	return out
}

type Deps struct {
	Mailbox    Mailbox
	Store      Store
	Extractor  *extract.Extractor
	Classifier *classify.Classifier
	Scorer     *confidence.Scorer
	Escalator  *escalate.Escalator
	Keywords   *deletion.KeywordSet
	Audit      *zap.Logger
	Log        *zap.Logger
	Now        func() time.Time
}

type Runner struct {
	mb       Mailbox
	st       Store
	ext      *extract.Extractor
	cls      *classify.Classifier
	scorer   *confidence.Scorer
	esc      *escalate.Escalator
	keywords *deletion.KeywordSet
	audit    *zap.Logger
	log      *zap.Logger
	now      func() time.Time
}

func New(d Deps) *Runner {
	r := &Runner{
		mb:       d.Mailbox,
		st:       d.Store,
		ext:      d.Extractor,
		cls:      d.Classifier,
		scorer:   d.Scorer,
		esc:      d.Escalator,
		keywords: d.Keywords,
		audit:    d.Audit,
		log:      d.Log,
		now:      d.Now,
	}
	if r.ext == nil {
		r.ext = extract.New(extract.DefaultOptions())
	}
	if r.cls == nil {
		r.cls = classify.New()
	}
	if r.scorer == nil {
		r.scorer = confidence.NewScorer(confidence.DefaultThresholds())
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.audit == nil {
		r.audit = zap.NewNop()
	}
	if r.esc == nil {
		r.esc = escalate.New(nil, r.scorer, false, r.log)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Analyze runs the pure part of the pipeline on one message.
func (r *Runner) Analyze(m domain.Message) domain.Analysis {
	ext := r.ext.Extract(m)
	cls := classify.OrDefault(r.cls.Classify(m.Subject, m.Text()))
	return domain.Analysis{
		Extraction:     ext,
		Classification: cls,
		Confidence:     r.scorer.Score(ext, cls),
		Method:         domain.MethodPattern,
	}
}

// Run searches the mailbox and applies every matching message to the
// store. Nothing is trashed here; see Execute. In preview mode the store
// is only read.
//
// A cancelled context stops the scan between messages and the partial
// report is returned with the context error. An unusable store stops it
// the same way.
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	rep := Report{Preview: opts.Preview, Summary: Summary{ByStatus: map[domain.Status]int{}}}

	msgs, err := r.mb.Search(ctx, mailbox.Query{Since: opts.Since, Max: opts.Max, Terms: opts.Terms})
	if err != nil {
		return rep, fmt.Errorf("search mailbox: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Date.Equal(msgs[j].Date) {
			return msgs[i].Date.Before(msgs[j].Date)
		}
		return msgs[i].ID < msgs[j].ID
	})
	r.log.Info("scan started",
		zap.Int("messages", len(msgs)),
		zap.Bool("preview", opts.Preview),
		zap.Time("since", opts.Since))

	analyses, err := r.analyzeAll(ctx, msgs, opts.Workers)
	if err != nil {
		return rep, err
	}

	var target reconcile.Store = r.st
	if opts.Preview {
		target = newOverlay(r.st)
	}
	rec := reconcile.New(target, r.log)

	for i, m := range msgs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		it, err := r.apply(ctx, rec, m, analyses[i], opts)
		rep.Items = append(rep.Items, it)
		rep.Summary.add(it)
		if err != nil {
			return rep, err
		}
	}

	r.log.Info("scan finished",
		zap.Int("processed", rep.Summary.Processed),
		zap.Int("created", rep.Summary.Created),
		zap.Int("updated", rep.Summary.Updated),
		zap.Int("conflicts", rep.Summary.Conflicts),
		zap.Int("store_failures", rep.Summary.StoreFailures),
		zap.Int("to_delete", rep.Summary.ToDelete))
	return rep, nil
}

func (r *Runner) analyzeAll(ctx context.Context, msgs []domain.Message, workers int) ([]domain.Analysis, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	out := make([]domain.Analysis, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range msgs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.Analyze(msgs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// apply returns an error only when the scan has to stop.
func (r *Runner) apply(ctx context.Context, rec *reconcile.Reconciler, m domain.Message, a domain.Analysis, opts Options) (Item, error) {
	a, _ = r.esc.Apply(ctx, m, a)
	it := Item{Message: m, Analysis: a}

	res, err := rec.Reconcile(ctx, reconcile.Input{
		Extraction:     a.Extraction,
		Classification: a.Classification,
		Confidence:     a.Confidence,
		Timestamp:      m.Date,
		MessageID:      m.ID,
	})
	if err != nil {
		it.Err = err
		it.Decision = domain.DeletionDecision{Reason: ReasonStoreFailed}
		if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return it, err
		}
		r.log.Error("reconcile failed",
			zap.String("message_id", m.ID),
			zap.String("company", a.Extraction.Company),
			zap.Error(err))
		return it, nil
	}

	it.Outcome = res.Outcome
	it.Replayed = res.Replayed
	it.Record = res.Record

	if !opts.Preview && a.Extraction.CompanySource == domain.SourceDomain {
		if host := extract.SenderDomain(m.From); host != "" {
			if err := r.st.RememberEmployerDomain(ctx, res.Record.EmployerKey, host); err != nil {
				r.log.Warn("remember employer domain", zap.String("domain", host), zap.Error(err))
			}
		}
	}

	it.Decision = r.decide(m, a.Classification.Status, res.Outcome == reconcile.Conflicted, opts)
	r.log.Debug("message applied",
		zap.String("message_id", m.ID),
		zap.String("company", a.Extraction.Company),
		zap.String("status", string(a.Classification.Status)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("method", string(a.Method)),
		zap.Bool("delete", it.Decision.Delete),
		zap.String("reason", it.Decision.Reason))
	return it, nil
}

// decide wraps the deletion policy with the per-run switches.
func (r *Runner) decide(m domain.Message, status domain.Status, conflict bool, opts Options) domain.DeletionDecision {
	if !opts.DeletionEnabled {
		return domain.DeletionDecision{Reason: ReasonDeletionOff}
	}
	if m.Flagged {
		return domain.DeletionDecision{Reason: ReasonStarred}
	}
	d := deletion.ShouldDelete(status, conflict, m.FullText(), r.keywords)
	if !d.Delete {
		return d
	}
	if (status == domain.StatusApplied && !opts.DeleteApplied) ||
		(status == domain.StatusRejected && !opts.DeleteRejected) {
		return domain.DeletionDecision{Reason: ReasonStatusDisabled}
	}
	return d
}

func (s *Summary) add(it Item) {
	s.Processed++
	if it.Err != nil {
		s.StoreFailures++
	}
	// A replayed message changed nothing and was counted on an earlier scan.
	if it.Replayed {
		s.Replayed++
	} else {
		switch it.Outcome {
		case reconcile.Created:
			s.Created++
		case reconcile.Updated:
			s.Updated++
		case reconcile.Conflicted:
			s.Conflicts++
		}
	}
	if it.Err == nil && it.Record.EmployerKey != "" {
		s.trackConfidence(it.Record.EmployerKey, it.Record.Confidence)
	}
	switch it.Analysis.Method {
	case domain.MethodHybrid:
		s.Escalations++
	case domain.MethodAIFailed:
		s.Escalations++
		s.EscalationFailure++
	}
	s.ByStatus[it.Analysis.Classification.Status]++
	if it.Decision.Delete {
		s.ToDelete++
	} else {
		s.Kept++
	}
}

// trackConfidence keeps LowConfidence equal to the number of distinct
// records touched by this scan whose stored confidence is low.
func (s *Summary) trackConfidence(key string, level domain.Level) {
	if s.levels == nil {
		s.levels = map[string]domain.Level{}
	}
	prev, seen := s.levels[key]
	s.levels[key] = level
	wasLow := seen && prev == domain.LevelLow
	isLow := level == domain.LevelLow
	switch {
	case isLow && !wasLow:
		s.LowConfidence++
	case wasLow && !isLow:
		s.LowConfidence--
	}
}
