// Command jobmail scans a mailbox for job application mail, keeps one
// record per employer up to date, and moves routine notifications to trash.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// cfgPath overrides <data dir>/config.yml
	cfgPath string
	// logLevel overrides logging.level from the config
	logLevel string

	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobmail",
	Short: "Track job applications from your inbox",
	Long: `jobmail reads application, interview, offer and rejection emails over IMAP,
keeps one record per employer in a local database, and moves routine
notifications to trash once they are recorded.

Examples:
  # See what a scan would do over the last day
  jobmail scan --preview

  # Scan everything since March and delete without asking
  jobmail scan --since 2026-03-01 --yes

  # Put the last batch of deleted emails back
  jobmail undo-last`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default <data dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(clearConflictCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(authCmd)
}
