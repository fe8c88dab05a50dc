package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jobmail-engine/internal/store"
)

var undoCmd = &cobra.Command{
	Use:     "undo-last",
	Aliases: []string{"undo"},
	Short:   "Move the last batch of deleted emails back to the inbox",
	Args:    cobra.NoArgs,
	RunE:    runUndo,
}

func runUndo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	r, err := a.runner(s.mb, s.db, s.audit, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	res, err := r.Undo(ctx)
	if errors.Is(err, store.ErrNoBatch) {
		fmt.Fprintln(out, "Nothing to undo.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Restored %d emails from batch %s.\n", res.Restored, res.BatchID)
	if len(res.Missing) > 0 {
		fmt.Fprintf(out, "%d emails were no longer in trash:\n", len(res.Missing))
		for _, id := range res.Missing {
			fmt.Fprintln(out, "  "+id)
		}
	}
	return nil
}
