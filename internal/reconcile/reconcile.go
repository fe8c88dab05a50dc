// Package reconcile keeps one application record per employer and applies
// each analysed message to it without ever lowering the record's status.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobmail-engine/internal/classify"
	"jobmail-engine/internal/domain"
)

// Store is the persistence the reconciler needs. Lookups are by the
// normalized employer key (see domain.EmployerKey).
type Store interface {
	FindByEmployerKey(ctx context.Context, key string) (domain.ApplicationRecord, bool, error)
	Create(ctx context.Context, rec domain.ApplicationRecord) error
	Update(ctx context.Context, rec domain.ApplicationRecord) error
}

type Outcome string

const (
	Created    Outcome = "created"
	Updated    Outcome = "updated"
	Conflicted Outcome = "conflicted"
)

type Input struct {
	Extraction     domain.ExtractionResult
	Classification domain.ClassificationResult
	Confidence     domain.ConfidenceResult
	Timestamp      time.Time
	MessageID      string
}

type Result struct {
	Outcome Outcome
	Record  domain.ApplicationRecord
	// Previous is the record before this message; zero on Created.
	Previous domain.ApplicationRecord
	// Replayed is set when the message had already been applied and the
	// record was left untouched.
	Replayed bool
}

const reviewNote = "NEEDS REVIEW: low confidence extraction"

// Reconciler serializes every mutation of the store.
type Reconciler struct {
	mu    sync.Mutex
	store Store
	log   *zap.Logger
}

func New(store Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, log: log}
}

func (r *Reconciler) Reconcile(ctx context.Context, in Input) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := domain.EmployerKey(in.Extraction.Company)
	if key == "" {
		key = domain.EmployerKey(domain.UnknownCompany)
	}
	ts := in.Timestamp.UTC()

	cur, found, err := r.store.FindByEmployerKey(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("find %q: %w", key, err)
	}

	if !found {
		rec := newRecord(key, in, ts)
		if err := r.store.Create(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("create %q: %w", key, err)
		}
		r.log.Info("record created",
			zap.String("employer", rec.Employer),
			zap.String("status", string(rec.Status)),
			zap.String("confidence", string(rec.Confidence)))
		return Result{Outcome: Created, Record: rec}, nil
	}

	legal := classify.CanTransition(cur.Status, in.Classification.Status)

	// A message that already contributed is never applied twice.
	if in.MessageID != "" && cur.HasMessage(in.MessageID) {
		out := Updated
		if !legal {
			out = Conflicted
		}
		return Result{Outcome: out, Record: cur, Previous: cur, Replayed: true}, nil
	}

	next := cur
	next.MessageIDs = append(append([]string(nil), cur.MessageIDs...), in.MessageID)
	if in.MessageID == "" {
		next.MessageIDs = cur.MessageIDs
	}
	if ts.After(next.LastUpdated) {
		next.LastUpdated = ts
	}

	out := Updated
	if legal {
		next.Status = in.Classification.Status
		next.Position = in.Extraction.Position
		if in.Confidence.Level.Rank() > cur.Confidence.Rank() {
			next.Confidence = in.Confidence.Level
		}
	} else {
		out = Conflicted
		next.Notes = domain.JoinNotes(cur.Notes, ConflictNote(in.Classification.Status, cur.Status, ts))
	}

	if err := r.store.Update(ctx, next); err != nil {
		return Result{}, fmt.Errorf("update %q: %w", key, err)
	}

	if out == Conflicted {
		r.log.Warn("status downgrade blocked",
			zap.String("employer", cur.Employer),
			zap.String("current", string(cur.Status)),
			zap.String("received", string(in.Classification.Status)),
			zap.String("message_id", in.MessageID))
	} else {
		r.log.Info("record updated",
			zap.String("employer", next.Employer),
			zap.String("from", string(cur.Status)),
			zap.String("to", string(next.Status)))
	}
	return Result{Outcome: out, Record: next, Previous: cur}, nil
}

func newRecord(key string, in Input, ts time.Time) domain.ApplicationRecord {
	rec := domain.ApplicationRecord{
		EmployerKey: key,
		Employer:    in.Extraction.Company,
		Position:    in.Extraction.Position,
		Status:      in.Classification.Status,
		Confidence:  in.Confidence.Level,
		FirstSeen:   ts,
		LastUpdated: ts,
	}
	if rec.Employer == "" {
		rec.Employer = domain.UnknownCompany
	}
	if rec.Position == "" {
		rec.Position = domain.UnspecifiedPosition
	}
	if !rec.Status.Valid() {
		rec.Status = domain.StatusApplied
	}
	if in.MessageID != "" {
		rec.MessageIDs = []string{in.MessageID}
	}
	if in.Confidence.Level == domain.LevelLow {
		rec.Notes = reviewNote
	}
	return rec
}

// ConflictNote formats the annotation left on a blocked downgrade.
func ConflictNote(received, kept domain.Status, at time.Time) string {
	return fmt.Sprintf("%s received %s after %s on %s", domain.ConflictPrefix, received, kept, at.Format("2006-01-02"))
}
