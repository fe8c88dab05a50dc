package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/report"
	"jobmail-engine/internal/scan"
	"jobmail-engine/internal/store"
)

var (
	listStatus    string
	listCompany   string
	listConflicts bool
	listSort      string
	listLimit     int
	listFormat    string

	exportFormat string
	exportOutput string

	updateStatus string
	updateForce  bool

	noteAppend bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	Long: `List tracked applications, most recently updated first.

Examples:
  jobmail list --status Interviewing
  jobmail list --conflicts
  jobmail list --company acme --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <company>",
	Short: "Show one application in full",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show application statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all applications as CSV or JSON",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var updateCmd = &cobra.Command{
	Use:   "update <company> --status <status>",
	Short: "Set an application's status by hand",
	Long: `Set an application's status by hand. Moving a record back to an earlier
stage (for example Offer to Applied) needs --force.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpdate,
}

var noteCmd = &cobra.Command{
	Use:   "note <company> <text>",
	Short: "Replace or append to an application's notes",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runNote,
}

var clearConflictCmd = &cobra.Command{
	Use:   "clear-conflict <company>",
	Short: "Drop the conflict notes of an application after review",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClearConflict,
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listStatus, "status", "", "Applied, Interviewing, Rejected or Offer")
	f.StringVar(&listCompany, "company", "", "substring of the company name")
	f.BoolVar(&listConflicts, "conflicts", false, "only records with unresolved conflicts")
	f.StringVar(&listSort, "sort", "updated", "updated, company, status or first_seen")
	f.IntVar(&listLimit, "limit", 0, "maximum rows (0 = all)")
	f.StringVar(&listFormat, "format", "table", "table, csv or json")

	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write (default stdout)")

	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "allow moving to an earlier stage")
	_ = updateCmd.MarkFlagRequired("status")

	noteCmd.Flags().BoolVarP(&noteAppend, "append", "a", false, "append instead of replacing")
}

// company joins the positional args so unquoted names work.
func company(args []string) string { return strings.Join(args, " ") }

// withStore opens the store for a read-only command.
func withStore(fn func(a *app, db *store.DB) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(a, db)
}

// withLockedStore also holds the run lock so edits never race a scan.
func withLockedStore(fn func(a *app, db *store.DB) error) error {
	return withStore(func(a *app, db *store.DB) error {
		unlock, err := scan.Lock(a.cfg.LockPath())
		if errors.Is(err, scan.ErrLocked) {
			return errors.New("a scan is in progress; try again when it finishes")
		}
		if err != nil {
			return err
		}
		defer unlock()
		return fn(a, db)
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(listFormat)
	if err != nil {
		return err
	}
	opts := store.ListOpts{
		Company:       listCompany,
		ConflictsOnly: listConflicts,
		Sort:          listSort,
		Limit:         listLimit,
	}
	if listStatus != "" {
		st, ok := domain.ParseStatus(listStatus)
		if !ok {
			return fmt.Errorf("unknown status %q", listStatus)
		}
		opts.Status = st
	}
	return withStore(func(_ *app, db *store.DB) error {
		recs, err := db.List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return report.WriteRecords(cmd.OutOrStdout(), recs, format)
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	return withStore(func(_ *app, db *store.DB) error {
		ctx := cmd.Context()
		rec, err := db.Get(ctx, company(args))
		if err != nil {
			return err
		}
		doms, err := db.EmployerDomains(ctx, rec.Employer)
		if err != nil {
			return err
		}
		return report.Record(cmd.OutOrStdout(), rec, doms)
	})
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withStore(func(_ *app, db *store.DB) error {
		s, err := db.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return report.Stats(cmd.OutOrStdout(), s)
	})
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := report.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	if format == report.FormatTable {
		return errors.New("export supports csv or json")
	}
	return withStore(func(_ *app, db *store.DB) error {
		recs, err := db.List(cmd.Context(), store.ListOpts{Sort: "company"})
		if err != nil {
			return err
		}
		if exportOutput == "" {
			return report.WriteRecords(cmd.OutOrStdout(), recs, format)
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		if err := report.WriteRecords(f, recs, format); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d applications to %s\n", len(recs), exportOutput)
		return nil
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	st, ok := domain.ParseStatus(updateStatus)
	if !ok {
		return fmt.Errorf("unknown status %q", updateStatus)
	}
	return withLockedStore(func(_ *app, db *store.DB) error {
		rec, err := db.SetStatus(cmd.Context(), company(args), st, updateForce, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s.\n", rec.Employer, rec.Status)
		return nil
	})
}

func runNote(cmd *cobra.Command, args []string) error {
	return withLockedStore(func(_ *app, db *store.DB) error {
		rec, err := db.SetNotes(cmd.Context(), args[0], strings.Join(args[1:], " "), noteAppend)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Notes for %s updated.\n", rec.Employer)
		return nil
	})
}

func runClearConflict(cmd *cobra.Command, args []string) error {
	return withLockedStore(func(_ *app, db *store.DB) error {
		rec, n, err := db.ClearConflicts(cmd.Context(), company(args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d conflict notes from %s.\n", n, rec.Employer)
		return nil
	})
}
