// Package deletion decides whether a message that has been reconciled may
// be moved to trash.
package deletion

import "jobmail-engine/internal/domain"

const (
	ReasonProtectedStatus = "protected status"
	ReasonConflict        = "conflict requires review"
	ReasonSafeStatus      = "safe status, no protection triggered"
	ReasonUnhandled       = "unhandled case"
	safetyPrefix          = "safety keyword: "
)

// ShouldDelete is the final gate; the first matching rule decides.
func ShouldDelete(status domain.Status, isConflict bool, text string, keywords *KeywordSet) domain.DeletionDecision {
	switch status {
	case domain.StatusInterviewing, domain.StatusOffer:
		return keep(ReasonProtectedStatus, "")
	}
	if isConflict {
		return keep(ReasonConflict, "")
	}
	if kw, ok := keywords.First(text); ok {
		return keep(safetyPrefix+kw, kw)
	}
	switch status {
	case domain.StatusApplied, domain.StatusRejected:
		return domain.DeletionDecision{Delete: true, Reason: ReasonSafeStatus}
	}
	return keep(ReasonUnhandled, "")
}

func keep(reason, kw string) domain.DeletionDecision {
	return domain.DeletionDecision{Delete: false, Reason: reason, Keyword: kw}
}
