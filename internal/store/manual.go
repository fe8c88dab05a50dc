package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobmail-engine/internal/classify"
	"jobmail-engine/internal/domain"
)

var ErrDowngrade = errors.New("status change would downgrade the record")

// SetStatus is a manual override. Downgrades are refused unless force is set.
func (d *DB) SetStatus(ctx context.Context, employer string, status domain.Status, force bool, now time.Time) (domain.ApplicationRecord, error) {
	r, err := d.Get(ctx, employer)
	if err != nil {
		return r, err
	}
	if !status.Valid() {
		return r, fmt.Errorf("invalid status %q", status)
	}
	if !force && !classify.CanTransition(r.Status, status) {
		return r, fmt.Errorf("%w: %s -> %s (use force)", ErrDowngrade, r.Status, status)
	}
	if r.Status == status {
		return r, nil
	}

	note := fmt.Sprintf("Manual: %s -> %s on %s", r.Status, status, now.UTC().Format("2006-01-02"))
	r.Notes = domain.JoinNotes(r.Notes, note)
	r.Status = status
	r.LastUpdated = now.UTC()
	return r, d.Update(ctx, r)
}

// SetNotes replaces the notes, or appends when appendNote is set.
func (d *DB) SetNotes(ctx context.Context, employer, notes string, appendNote bool) (domain.ApplicationRecord, error) {
	r, err := d.Get(ctx, employer)
	if err != nil {
		return r, err
	}
	if appendNote {
		r.Notes = domain.JoinNotes(r.Notes, strings.TrimSpace(notes))
	} else {
		r.Notes = strings.TrimSpace(notes)
	}
	return r, d.Update(ctx, r)
}

// ClearConflicts drops conflict annotations once they have been reviewed.
func (d *DB) ClearConflicts(ctx context.Context, employer string) (domain.ApplicationRecord, int, error) {
	r, err := d.Get(ctx, employer)
	if err != nil {
		return r, 0, err
	}
	var (
		kept    []string
		removed int
	)
	for _, part := range strings.Split(r.Notes, domain.NoteSeparator) {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, domain.ConflictPrefix):
			removed++
		default:
			kept = append(kept, part)
		}
	}
	if removed == 0 {
		return r, 0, nil
	}
	r.Notes = strings.Join(kept, domain.NoteSeparator)
	return r, removed, d.Update(ctx, r)
}
