package scan

import (
	"context"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/reconcile"
)

// overlay lets a preview reconcile against the real store without
// writing to it. Writes land in memory and shadow the base records.
type overlay struct {
	base    reconcile.Store
	records map[string]domain.ApplicationRecord
}

func newOverlay(base reconcile.Store) *overlay {
	return &overlay{base: base, records: map[string]domain.ApplicationRecord{}}
}

func (o *overlay) FindByEmployerKey(ctx context.Context, key string) (domain.ApplicationRecord, bool, error) {
	if r, ok := o.records[domain.EmployerKey(key)]; ok {
		return r, true, nil
	}
	return o.base.FindByEmployerKey(ctx, key)
}

func (o *overlay) Create(_ context.Context, rec domain.ApplicationRecord) error {
	o.records[domain.EmployerKey(rec.EmployerKey)] = rec
	return nil
}

func (o *overlay) Update(_ context.Context, rec domain.ApplicationRecord) error {
	o.records[domain.EmployerKey(rec.EmployerKey)] = rec
	return nil
}
