package store

import (
	"context"
	"strings"

	"jobmail-engine/internal/domain"
)

type Stats struct {
	Total           int                   `json:"total"`
	ByStatus        map[domain.Status]int `json:"byStatus"`
	ByConfidence    map[domain.Level]int  `json:"byConfidence"`
	Conflicts       int                   `json:"conflicts"`
	NeedsReview     int                   `json:"needsReview"`
	Messages        int                   `json:"messages"`
	ResponseRate    float64               `json:"responseRate"` // share of records past Applied
	DeletionBatches int                   `json:"deletionBatches"`
	DeletedPending  int                   `json:"deletedPending"` // trashed and not restored
}

func (d *DB) Stats(ctx context.Context) (Stats, error) {
	s := Stats{
		ByStatus:     map[domain.Status]int{},
		ByConfidence: map[domain.Level]int{},
	}

	recs, err := d.List(ctx, ListOpts{})
	if err != nil {
		return s, err
	}
	for _, r := range recs {
		s.Total++
		s.ByStatus[r.Status]++
		s.ByConfidence[r.Confidence]++
		s.Messages += len(r.MessageIDs)
		if r.HasConflict() {
			s.Conflicts++
		}
		if strings.Contains(r.Notes, "NEEDS REVIEW") {
			s.NeedsReview++
		}
	}
	if s.Total > 0 {
		s.ResponseRate = float64(s.Total-s.ByStatus[domain.StatusApplied]) / float64(s.Total)
	}

	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM deletion_batches;`).Scan(&s.DeletionBatches); err != nil {
		return s, wrap(err)
	}
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM deletion_items WHERE restored = 0;`).Scan(&s.DeletedPending); err != nil {
		return s, wrap(err)
	}
	return s, nil
}
