package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DeletionItem is one message moved to trash by a scan.
type DeletionItem struct {
	MessageID string `json:"messageId"`
	Employer  string `json:"employer"`
	Subject   string `json:"subject"`
	Reason    string `json:"reason"`
	Restored  bool   `json:"restored"`
}

type DeletionBatch struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	RestoredAt time.Time      `json:"restoredAt,omitempty"`
	Items      []DeletionItem `json:"items"`
}

var ErrNoBatch = errors.New("no deletion batch to undo")

func (d *DB) SaveBatch(ctx context.Context, b DeletionBatch) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO deletion_batches(id, created_at) VALUES(?, ?);`,
		b.ID, ts(b.CreatedAt)); err != nil {
		return fmt.Errorf("insert batch: %w", wrap(err))
	}
	for _, it := range b.Items {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO deletion_items(batch_id, message_id, employer, subject, reason)
VALUES(?,?,?,?,?);`,
			b.ID, it.MessageID, it.Employer, it.Subject, it.Reason); err != nil {
			return fmt.Errorf("insert batch item: %w", wrap(err))
		}
	}
	return tx.Commit()
}

// LastBatch returns the newest batch that has not been restored yet.
func (d *DB) LastBatch(ctx context.Context) (DeletionBatch, error) {
	var b DeletionBatch
	var created string
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, created_at FROM deletion_batches
WHERE restored_at = ''
ORDER BY created_at DESC, rowid DESC
LIMIT 1;`).Scan(&b.ID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNoBatch
	}
	if err != nil {
		return b, wrap(err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)

	rows, err := d.Pool.QueryContext(ctx, `
SELECT message_id, employer, subject, reason, restored
FROM deletion_items WHERE batch_id = ?
ORDER BY rowid;`, b.ID)
	if err != nil {
		return b, wrap(err)
	}
	defer rows.Close()
	for rows.Next() {
		var it DeletionItem
		if err := rows.Scan(&it.MessageID, &it.Employer, &it.Subject, &it.Reason, &it.Restored); err != nil {
			return b, err
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}

// MarkRestored flags the given messages as restored and closes the batch
// once nothing in it is left in trash.
func (d *DB) MarkRestored(ctx context.Context, batchID string, messageIDs []string, now time.Time) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range messageIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE deletion_items SET restored = 1 WHERE batch_id = ? AND message_id = ?;`,
			batchID, id); err != nil {
			return wrap(err)
		}
	}

	var pending int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deletion_items WHERE batch_id = ? AND restored = 0;`, batchID).Scan(&pending); err != nil {
		return wrap(err)
	}
	if pending == 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE deletion_batches SET restored_at = ? WHERE id = ?;`, ts(now), batchID); err != nil {
			return wrap(err)
		}
	}
	return tx.Commit()
}
