package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"jobmail-engine/internal/domain"
)

var csvHeader = []string{
	"company", "position", "status", "confidence",
	"first_seen", "last_updated", "emails", "message_ids", "notes",
}

// WriteCSV writes one row per application. Message ids are joined with
// spaces; Message-IDs never contain whitespace.
func WriteCSV(w io.Writer, recs []domain.ApplicationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			r.Employer,
			r.Position,
			string(r.Status),
			string(r.Confidence),
			r.FirstSeen.UTC().Format(time.RFC3339),
			r.LastUpdated.UTC().Format(time.RFC3339),
			strconv.Itoa(len(r.MessageIDs)),
			strings.Join(r.MessageIDs, " "),
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Format is an output format accepted by list and export.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, csv or json)", s)
}

// WriteRecords renders recs in the given format.
func WriteRecords(w io.Writer, recs []domain.ApplicationRecord, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatJSON:
		if recs == nil {
			recs = []domain.ApplicationRecord{}
		}
		return WriteJSON(w, recs)
	default:
		return Records(w, recs)
	}
}
