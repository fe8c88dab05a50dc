package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/store"
)

const trashChunk = 100

var ErrPreview = errors.New("preview reports cannot be executed")

// Executed describes one Execute call.
type Executed struct {
	BatchID string
	Trashed int
	Failed  int
}

// Execute moves the report's deletable messages to trash in chunks and
// records what was moved as one deletion batch, so undo can bring it back.
// A failed chunk is logged and skipped.
func (r *Runner) Execute(ctx context.Context, rep Report) (Executed, error) {
	if rep.Preview {
		return Executed{}, ErrPreview
	}
	items := rep.Deletable()
	if len(items) == 0 {
		return Executed{}, nil
	}

	batch := store.DeletionBatch{ID: uuid.NewString(), CreatedAt: r.now().UTC()}
	var res Executed

	for start := 0; start < len(items); start += trashChunk {
		if err := ctx.Err(); err != nil {
			break
		}
		chunk := items[start:min(start+trashChunk, len(items))]
		msgs := make([]domain.Message, len(chunk))
		for i, it := range chunk {
			msgs[i] = it.Message
		}
		if err := r.mb.Trash(ctx, msgs); err != nil {
			res.Failed += len(chunk)
			r.log.Error("trash failed", zap.Int("messages", len(chunk)), zap.Error(err))
			continue
		}
		for _, it := range chunk {
			batch.Items = append(batch.Items, store.DeletionItem{
				MessageID: it.Message.ID,
				Employer:  it.Record.Employer,
				Subject:   it.Message.Subject,
				Reason:    it.Decision.Reason,
			})
			r.audit.Info("trash",
				zap.String("batch", batch.ID),
				zap.String("message_id", it.Message.ID),
				zap.String("from", it.Message.From),
				zap.String("subject", it.Message.Subject),
				zap.String("employer", it.Record.Employer),
				zap.String("status", string(it.Analysis.Classification.Status)),
				zap.String("reason", it.Decision.Reason))
		}
		res.Trashed += len(chunk)
	}

	if len(batch.Items) == 0 {
		return res, ctx.Err()
	}
	res.BatchID = batch.ID
	if err := r.st.SaveBatch(context.WithoutCancel(ctx), batch); err != nil {
		return res, fmt.Errorf("save deletion batch: %w", err)
	}
	r.log.Info("messages trashed", zap.String("batch", batch.ID), zap.Int("trashed", res.Trashed), zap.Int("failed", res.Failed))
	return res, ctx.Err()
}

type Undone struct {
	BatchID  string
	Restored int
	Missing  []string // not found in trash, e.g. already purged
}

// Undo restores the newest batch that still has messages in trash.
func (r *Runner) Undo(ctx context.Context) (Undone, error) {
	b, err := r.st.LastBatch(ctx)
	if err != nil {
		return Undone{}, err
	}
	res := Undone{BatchID: b.ID}

	var ids []string
	for _, it := range b.Items {
		if !it.Restored {
			ids = append(ids, it.MessageID)
		}
	}

	found, err := r.mb.Restore(ctx, ids)
	if err != nil {
		return res, fmt.Errorf("restore batch %s: %w", b.ID, err)
	}
	restored := make(map[string]bool, len(found))
	for _, id := range found {
		restored[id] = true
		r.audit.Info("restore", zap.String("batch", b.ID), zap.String("message_id", id))
	}
	for _, id := range ids {
		if !restored[id] {
			res.Missing = append(res.Missing, id)
		}
	}
	res.Restored = len(found)

	// Messages that are gone from trash cannot come back; close them out too.
	if err := r.st.MarkRestored(ctx, b.ID, ids, r.now().UTC()); err != nil {
		return res, fmt.Errorf("mark batch %s restored: %w", b.ID, err)
	}
	r.log.Info("batch restored", zap.String("batch", b.ID), zap.Int("restored", res.Restored), zap.Int("missing", len(res.Missing)))
	return res, nil
}
