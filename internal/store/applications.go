package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobmail-engine/internal/domain"
)

var (
	ErrNotFound = errors.New("application not found")
	// ErrCorruptRecord means a stored row could not be decoded. The row is
	// left as it is; nothing overwrites it until it is repaired.
	ErrCorruptRecord = errors.New("corrupt application record")
)

const recordColumns = `employer_key, employer, position, status, confidence, first_seen, last_updated, message_ids, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (domain.ApplicationRecord, error) {
	var (
		r                   domain.ApplicationRecord
		status, conf        string
		firstSeen, lastSeen string
		idsJSON             string
	)
	if err := s.Scan(&r.EmployerKey, &r.Employer, &r.Position, &status, &conf, &firstSeen, &lastSeen, &idsJSON, &r.Notes); err != nil {
		return r, err
	}
	corrupt := func(field string, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrCorruptRecord, r.EmployerKey, field, err)
		}
		return fmt.Errorf("%w: %s %s", ErrCorruptRecord, r.EmployerKey, field)
	}

	r.Status = domain.Status(status)
	if !r.Status.Valid() {
		return r, corrupt(fmt.Sprintf("status %q", status), nil)
	}
	r.Confidence = domain.Level(conf)
	switch r.Confidence {
	case domain.LevelHigh, domain.LevelMedium, domain.LevelLow:
	default:
		return r, corrupt(fmt.Sprintf("confidence %q", conf), nil)
	}
	var err error
	if r.FirstSeen, err = time.Parse(time.RFC3339, firstSeen); err != nil {
		return r, corrupt("first_seen", err)
	}
	if r.LastUpdated, err = time.Parse(time.RFC3339, lastSeen); err != nil {
		return r, corrupt("last_updated", err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &r.MessageIDs); err != nil {
		return r, corrupt("message_ids", err)
	}
	return r, nil
}

func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// FindByEmployerKey looks a record up by its normalized employer key.
func (d *DB) FindByEmployerKey(ctx context.Context, key string) (domain.ApplicationRecord, bool, error) {
	key = normalizeEmployerKey(key)
	row := d.Pool.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM applications WHERE employer_key = ? LIMIT 1;`, key)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ApplicationRecord{}, false, nil
	}
	if err != nil {
		return domain.ApplicationRecord{}, false, wrap(err)
	}
	return r, true, nil
}

func (d *DB) Create(ctx context.Context, r domain.ApplicationRecord) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO applications(`+recordColumns+`)
VALUES(?,?,?,?,?,?,?,?,?);`,
		normalizeEmployerKey(r.EmployerKey), r.Employer, r.Position, string(r.Status), string(r.Confidence),
		ts(r.FirstSeen), ts(r.LastUpdated), encodeIDs(r.MessageIDs), r.Notes)
	if err != nil {
		return fmt.Errorf("insert application: %w", wrap(err))
	}
	return nil
}

func (d *DB) Update(ctx context.Context, r domain.ApplicationRecord) error {
	res, err := d.Pool.ExecContext(ctx, `
UPDATE applications SET
  employer = ?,
  position = ?,
  status = ?,
  confidence = ?,
  last_updated = ?,
  message_ids = ?,
  notes = ?
WHERE employer_key = ?;`,
		r.Employer, r.Position, string(r.Status), string(r.Confidence),
		ts(r.LastUpdated), encodeIDs(r.MessageIDs), r.Notes, normalizeEmployerKey(r.EmployerKey))
	if err != nil {
		return fmt.Errorf("update application: %w", wrap(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get resolves an employer by name, case-insensitively.
func (d *DB) Get(ctx context.Context, employer string) (domain.ApplicationRecord, error) {
	r, ok, err := d.FindByEmployerKey(ctx, employer)
	if err != nil {
		return r, err
	}
	if !ok {
		return r, fmt.Errorf("%w: %s", ErrNotFound, employer)
	}
	return r, nil
}

type ListOpts struct {
	Status        domain.Status // empty = any
	Company       string        // substring match on employer
	ConflictsOnly bool
	Sort          string // updated | company | status | first_seen
	Limit         int
}

func (d *DB) List(ctx context.Context, opts ListOpts) ([]domain.ApplicationRecord, error) {
	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"updated":    "last_updated DESC",
		"company":    "employer_key ASC",
		"status":     "status ASC, last_updated DESC",
		"first_seen": "first_seen ASC",
	}[opts.Sort]
	if order == "" {
		order = "last_updated DESC"
	}

	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if c := normalizeEmployerKey(opts.Company); c != "" {
		where = append(where, "employer_key LIKE ?")
		args = append(args, "%"+c+"%")
	}
	if opts.ConflictsOnly {
		where = append(where, "notes LIKE ?")
		args = append(args, "%"+domain.ConflictPrefix+"%")
	}

	query := `SELECT ` + recordColumns + ` FROM applications`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + order
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.Pool.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []domain.ApplicationRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
