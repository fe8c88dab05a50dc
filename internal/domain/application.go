package domain

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusRejected     Status = "Rejected"
	StatusOffer        Status = "Offer"
)

// Statuses in tie-break priority order, most distinctive first.
var Statuses = []Status{StatusRejected, StatusOffer, StatusInterviewing, StatusApplied}

func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusInterviewing, StatusRejected, StatusOffer:
		return true
	}
	return false
}

// ParseStatus matches a canonical status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

type Source string

const (
	SourceDomain  Source = "domain"
	SourceSubject Source = "subject"
	SourceBody    Source = "body"
	SourceSender  Source = "sender"
	SourceAI      Source = "ai"
	SourceNone    Source = "none"
)

type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Rank orders levels so that a higher level compares greater.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	}
	return 0
}

// Method records how the final fields of a message were produced.
type Method string

const (
	MethodPattern  Method = "pattern_only"
	MethodHybrid   Method = "hybrid"
	MethodAIFailed Method = "ai_failed"
)

const (
	UnknownCompany      = "Unknown"
	UnspecifiedPosition = "Not specified"
)

type ExtractionResult struct {
	Company        string
	CompanySource  Source
	Position       string
	PositionSource Source
}

func (e ExtractionResult) CompanyKnown() bool  { return e.Company != "" && e.Company != UnknownCompany }
func (e ExtractionResult) PositionKnown() bool { return e.Position != "" && e.Position != UnspecifiedPosition }

type ClassificationResult struct {
	Status  Status
	Matches int
}

type ConfidenceResult struct {
	Score float64
	Level Level
}

// Analysis is everything the pipeline derived from one message before
// touching the store.
type Analysis struct {
	Extraction     ExtractionResult
	Classification ClassificationResult
	Confidence     ConfidenceResult
	Method         Method
}

// ApplicationRecord is the durable per-employer record.
type ApplicationRecord struct {
	EmployerKey string    `json:"employerKey"`
	Employer    string    `json:"employer"`
	Position    string    `json:"position"`
	Status      Status    `json:"status"`
	Confidence  Level     `json:"confidence"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastUpdated time.Time `json:"lastUpdated"`
	MessageIDs  []string  `json:"messageIds"`
	Notes       string    `json:"notes"`
}

// HasMessage reports whether id already contributed to the record.
func (r ApplicationRecord) HasMessage(id string) bool {
	for _, m := range r.MessageIDs {
		if m == id {
			return true
		}
	}
	return false
}

// HasConflict reports whether the notes carry an unresolved conflict annotation.
func (r ApplicationRecord) HasConflict() bool {
	return strings.Contains(r.Notes, ConflictPrefix)
}

const (
	ConflictPrefix = "Conflict:"
	// NoteSeparator joins the individual annotations in Notes.
	NoteSeparator  = "; "
)

// JoinNotes appends note to notes. Empty parts are dropped.
func JoinNotes(notes, note string) string {
	switch {
	case note == "":
		return notes
	case notes == "":
		return note
	}
	return notes + NoteSeparator + note
}

type DeletionDecision struct {
	Delete  bool   `json:"delete"`
	Reason  string `json:"reason"`
	Keyword string `json:"keyword,omitempty"`
}

// ErrStoreUnavailable means the store cannot be used at all and a scan
// has to stop rather than skip a message.
var ErrStoreUnavailable = errors.New("store unavailable")

// EmployerKey normalizes an employer name into its lookup key.
func EmployerKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
