package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const backupPrefix = "jobmail-"

// Backup writes a consistent copy of the database into dir and prunes all
// but the newest keep backups. keep <= 0 disables pruning.
func (d *DB) Backup(ctx context.Context, dir string, keep int, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, backupPrefix+now.UTC().Format("20060102-150405")+".db")
	_ = os.Remove(dst)

	if _, err := d.Pool.ExecContext(ctx, `VACUUM INTO ?;`, dst); err != nil {
		return "", fmt.Errorf("backup: %w", wrap(err))
	}
	if keep > 0 {
		if err := pruneBackups(dir, keep); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func pruneBackups(dir string, keep int) error {
	matches, err := filepath.Glob(filepath.Join(dir, backupPrefix+"*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= keep {
		return nil
	}
	// names embed the timestamp, so lexical order is chronological
	sort.Strings(matches)
	for _, p := range matches[:len(matches)-keep] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
