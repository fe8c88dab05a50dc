package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmail-engine/internal/report"
	"jobmail-engine/internal/scan"
)

var (
	scanPreview  bool
	scanUseAI    bool
	scanSince    string
	scanMax      int
	scanYes      bool
	scanVerbose  bool
	scanNoDelete bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the mailbox, update records and trash routine notifications",
	Long: `Search the mailbox for application mail, update one record per employer,
and move Applied and Rejected notifications to trash after confirmation.

--preview looks at the last day (scan.preview_hours) and changes nothing:
no records are written and no email is moved.

Examples:
  jobmail scan --preview
  jobmail scan --since 2026-01-01 --use-ai
  jobmail scan --yes --verbose`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.BoolVar(&scanPreview, "preview", false, "report what would happen without writing or deleting anything")
	f.BoolVar(&scanUseAI, "use-ai", false, "escalate low-confidence messages to the local model for this run")
	f.StringVar(&scanSince, "since", "", "only scan mail received on or after this date (YYYY-MM-DD)")
	f.IntVar(&scanMax, "max", 0, "maximum number of messages (default scan.max_messages)")
	f.BoolVarP(&scanYes, "yes", "y", false, "delete without asking")
	f.BoolVar(&scanYes, "confirm", false, "alias for --yes")
	f.BoolVarP(&scanVerbose, "verbose", "v", false, "print one row per message")
	f.BoolVar(&scanNoDelete, "no-delete", false, "update records but keep every email")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	now := time.Now()
	since, err := scanWindow(scanSince, scanPreview, a.cfg.Scan.PreviewHours, a.cfg.Scan.SinceDays, now)
	if err != nil {
		return err
	}
	limit := a.cfg.Scan.MaxMessages
	if scanMax > 0 {
		limit = scanMax
	}

	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if !scanPreview && a.cfg.Store.Backup {
		path, err := s.db.Backup(ctx, a.cfg.BackupDir(), a.cfg.Store.BackupKeep, now)
		if err != nil {
			return fmt.Errorf("backup before scan: %w", err)
		}
		a.log.Info("store backed up", zap.String("path", path))
	}

	r, err := a.runner(s.mb, s.db, s.audit, scanUseAI)
	if err != nil {
		return err
	}

	rep, runErr := r.Run(ctx, scan.Options{
		Since:           since,
		Max:             limit,
		Terms:           a.terms(),
		Preview:         scanPreview,
		Workers:         a.cfg.Scan.Workers,
		DeletionEnabled: a.cfg.Deletion.Enabled && !scanNoDelete,
		DeleteApplied:   a.cfg.Deletion.DeleteApplied,
		DeleteRejected:  a.cfg.Deletion.DeleteRejected,
	})
	out := cmd.OutOrStdout()
	if runErr != nil && len(rep.Items) == 0 {
		return runErr
	}
	if scanVerbose || scanPreview {
		if err := report.ScanTable(out, rep.Items); err != nil {
			return err
		}
	}
	if err := report.ScanSummary(out, rep); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("scan stopped early: %w", runErr)
	}

	n := len(rep.Deletable())
	if scanPreview || n == 0 {
		return nil
	}
	if !scanYes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Move %d emails to trash?", n))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Nothing deleted.")
			return nil
		}
	}

	ex, err := r.Execute(ctx, rep)
	if errors.Is(err, scan.ErrPreview) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Moved %d emails to trash (batch %s).", ex.Trashed, ex.BatchID)
	if ex.Failed > 0 {
		fmt.Fprintf(out, " %d could not be moved.", ex.Failed)
	}
	fmt.Fprintln(out, " Run `jobmail undo-last` to restore them.")
	return nil
}

// scanWindow resolves the earliest date a scan looks at.
func scanWindow(since string, preview bool, previewHours, sinceDays int, now time.Time) (time.Time, error) {
	if since != "" {
		t, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("--since: want YYYY-MM-DD, got %q", since)
		}
		return t, nil
	}
	if preview {
		return now.Add(-time.Duration(previewHours) * time.Hour), nil
	}
	return now.AddDate(0, 0, -sinceDays), nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
