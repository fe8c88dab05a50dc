// Package classify assigns one of the four canonical statuses to a message
// and defines which status changes a record may go through.
package classify

import (
	"regexp"
	"strings"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/patterns"
)

// Counts holds the number of distinct patterns that fired per status.
type Counts map[domain.Status]int

type Classifier struct {
	status map[domain.Status][]*regexp.Regexp
	strong []*regexp.Regexp
}

func New() *Classifier {
	return &Classifier{status: patterns.Status, strong: patterns.StrongApplied}
}

// Classify returns false when no status pattern matched at all; callers
// then fall back to Applied with zero matches (see OrDefault).
func (c *Classifier) Classify(subject, body string) (domain.ClassificationResult, bool) {
	text := normalize(subject + " " + body)

	counts := make(Counts, len(domain.Statuses))
	for _, st := range domain.Statuses {
		for _, re := range c.status[st] {
			if re.MatchString(text) {
				counts[st]++
			}
		}
	}

	strong := false
	for _, re := range c.strong {
		if re.MatchString(text) {
			strong = true
			break
		}
	}

	st, ok := Decide(counts, strong)
	if !ok {
		return domain.ClassificationResult{}, false
	}
	return domain.ClassificationResult{Status: st, Matches: counts[st]}, true
}

// OrDefault applies the no-match default.
func OrDefault(res domain.ClassificationResult, ok bool) domain.ClassificationResult {
	if !ok {
		return domain.ClassificationResult{Status: domain.StatusApplied, Matches: 0}
	}
	return res
}

// Decide picks the status from per-status counts.
//
// Overrides, in order:
//  1. any Rejected match forces Rejected;
//  2. a strong confirmation phrase turns an Interviewing lead into Applied;
//  3. Offer beats Rejected when both fired and Offer has at least as many.
//
// Otherwise the highest count wins and ties go Rejected > Offer >
// Interviewing > Applied. Rule 1 makes rule 3 unreachable today; both are
// kept as written and pinned in tests.
func Decide(counts Counts, strongApplied bool) (domain.Status, bool) {
	lead, ok := leader(counts)
	if !ok {
		return "", false
	}

	switch {
	case counts[domain.StatusRejected] >= 1:
		return domain.StatusRejected, true
	case strongApplied && lead == domain.StatusInterviewing:
		return domain.StatusApplied, true
	case counts[domain.StatusOffer] > 0 && counts[domain.StatusRejected] > 0 &&
		counts[domain.StatusOffer] >= counts[domain.StatusRejected]:
		return domain.StatusOffer, true
	}
	return lead, true
}

// leader is the strictly highest count, ties broken by priority order.
func leader(counts Counts) (domain.Status, bool) {
	var best domain.Status
	bestN := 0
	for _, st := range domain.Statuses { // priority order
		if n := counts[st]; n > bestN {
			best, bestN = st, n
		}
	}
	return best, bestN > 0
}

func normalize(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return strings.ToLower(s)
}
