package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/scan"
	"jobmail-engine/internal/store"
)

const dateLayout = "2006-01-02"

func line(label string, v any) string {
	return labelStyle.Render(label) + fmt.Sprint(v)
}

// ScanSummary prints the counts a user acts on after a scan. Conflicts,
// low-confidence records and escalation failures are listed separately.
func ScanSummary(w io.Writer, rep scan.Report) error {
	s := rep.Summary
	title := "Scan complete"
	if rep.Preview {
		title = "Preview (nothing written, nothing deleted)"
	}

	lines := []string{
		titleStyle.Render(title),
		"",
		line("Processed", s.Processed),
		line("New employers", s.Created),
		line("Updated", s.Updated),
		line("Already seen", s.Replayed),
		"",
	}
	for _, st := range []domain.Status{domain.StatusApplied, domain.StatusInterviewing, domain.StatusRejected, domain.StatusOffer} {
		lines = append(lines, line("  "+string(st), s.ByStatus[st]))
	}
	lines = append(lines,
		"",
		flagged("Conflicts (review)", s.Conflicts),
		flagged("Low confidence", s.LowConfidence),
		line("Escalated to AI", s.Escalations),
		flagged("Escalation failures", s.EscalationFailure),
		flagged("Store failures", s.StoreFailures),
		"",
		line("To delete", s.ToDelete),
		line("Kept", s.Kept),
	)
	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}

func flagged(label string, n int) string {
	if n == 0 {
		return line(label, n)
	}
	return labelStyle.Render(label) + warnStyle.Render(fmt.Sprint(n))
}

// ScanTable lists every message of a scan with its decision.
func ScanTable(w io.Writer, items []scan.Item) error {
	rows := make([][]string, 0, len(items))
	statuses := make([]domain.Status, 0, len(items))
	for _, it := range items {
		action := "keep"
		if it.Decision.Delete {
			action = "delete"
		}
		outcome := string(it.Outcome)
		if it.Err != nil {
			outcome = "error"
		} else if it.Replayed {
			outcome += " (seen)"
		}
		rows = append(rows, []string{
			it.Message.Date.Format(dateLayout),
			truncate(it.Analysis.Extraction.Company, 24),
			truncate(it.Analysis.Extraction.Position, 28),
			string(it.Analysis.Classification.Status),
			string(it.Analysis.Confidence.Level),
			outcome,
			action,
			truncate(it.Decision.Reason, 36),
			truncate(it.Message.Subject, 40),
		})
		statuses = append(statuses, it.Analysis.Classification.Status)
	}

	t := newTable(statuses, "Date", "Company", "Position", "Status", "Conf", "Outcome", "Action", "Reason", "Subject")
	t.Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Records lists stored applications.
func Records(w io.Writer, recs []domain.ApplicationRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("No applications found."))
		return err
	}
	rows := make([][]string, 0, len(recs))
	statuses := make([]domain.Status, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			truncate(r.Employer, 28),
			truncate(r.Position, 32),
			string(r.Status),
			string(r.Confidence),
			r.FirstSeen.Format(dateLayout),
			r.LastUpdated.Format(dateLayout),
			fmt.Sprint(len(r.MessageIDs)),
			truncate(r.Notes, 40),
		})
		statuses = append(statuses, r.Status)
	}
	t := newTable(statuses, "Company", "Position", "Status", "Conf", "First seen", "Updated", "Emails", "Notes")
	t.Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Record prints one application in full.
func Record(w io.Writer, r domain.ApplicationRecord, domains []string) error {
	notes := r.Notes
	if notes == "" {
		notes = dimStyle.Render("-")
	} else {
		notes = strings.ReplaceAll(notes, domain.NoteSeparator, "\n"+strings.Repeat(" ", 22))
	}
	doms := dimStyle.Render("-")
	if len(domains) > 0 {
		doms = strings.Join(domains, ", ")
	}
	lines := []string{
		titleStyle.Render(r.Employer),
		"",
		line("Position", r.Position),
		labelStyle.Render("Status") + statusStyle(r.Status).UnsetPadding().Render(string(r.Status)),
		line("Confidence", r.Confidence),
		line("First seen", r.FirstSeen.Format(dateLayout)),
		line("Last updated", r.LastUpdated.Format(dateLayout)),
		line("Emails", len(r.MessageIDs)),
		line("Sender domains", doms),
		line("Notes", notes),
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}

// Stats prints store statistics.
func Stats(w io.Writer, s store.Stats) error {
	lines := []string{
		titleStyle.Render("Applications"),
		"",
		line("Total", s.Total),
	}
	for _, st := range []domain.Status{domain.StatusApplied, domain.StatusInterviewing, domain.StatusRejected, domain.StatusOffer} {
		lines = append(lines, line("  "+string(st), s.ByStatus[st]))
	}
	lines = append(lines,
		line("Response rate", fmt.Sprintf("%.1f%%", s.ResponseRate*100)),
		line("Emails tracked", s.Messages),
		"",
		line("High confidence", s.ByConfidence[domain.LevelHigh]),
		line("Medium confidence", s.ByConfidence[domain.LevelMedium]),
		line("Low confidence", s.ByConfidence[domain.LevelLow]),
		flagged("Conflicts", s.Conflicts),
		flagged("Needs review", s.NeedsReview),
		"",
		line("Deletion batches", s.DeletionBatches),
		line("Emails in trash", s.DeletedPending),
	)
	_, err := fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	return err
}

// newTable styles the status column of each row by its status.
func newTable(statuses []domain.Status, headers ...string) *table.Table {
	statusCol := -1
	for i, h := range headers {
		if h == "Status" {
			statusCol = i
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == statusCol && row >= 0 && row < len(statuses):
				return statusStyle(statuses[row])
			}
			return cellStyle
		})
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
