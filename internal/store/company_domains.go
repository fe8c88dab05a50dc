package store

import (
	"context"
	"strings"
	"time"
)

// RememberEmployerDomain records that mail for an employer came from domain.
func (d *DB) RememberEmployerDomain(ctx context.Context, employer, domain string) error {
	employer = normalizeEmployerKey(employer)
	domain = strings.ToLower(strings.TrimSpace(domain))

	if employer == "" || domain == "" {
		return nil
	}

	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO employer_domains(domain, employer_key, seen_at)
VALUES(?,?,?)
ON CONFLICT(domain, employer_key) DO UPDATE SET
  seen_at = excluded.seen_at;
`, domain, employer, time.Now().UTC().Format(time.RFC3339))

	return wrap(err)
}

// EmployerDomains lists the sender domains seen for an employer.
func (d *DB) EmployerDomains(ctx context.Context, employer string) ([]string, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT domain FROM employer_domains WHERE employer_key = ? ORDER BY seen_at DESC, domain ASC;`,
		normalizeEmployerKey(employer))
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var dom string
		if err := rows.Scan(&dom); err != nil {
			return nil, err
		}
		out = append(out, dom)
	}
	return out, rows.Err()
}

func normalizeEmployerKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	return s
}
