package classify

import "jobmail-engine/internal/domain"

var levels = map[domain.Status]int{
	domain.StatusApplied:      0,
	domain.StatusInterviewing: 1,
	domain.StatusRejected:     1,
	domain.StatusOffer:        2,
}

// Level returns the hierarchy level of a status. Unknown statuses sit at 0.
func Level(s domain.Status) int { return levels[s] }

// CanTransition reports whether a record may move from cur to next:
// upward and sideways moves are legal, downgrades are not.
func CanTransition(cur, next domain.Status) bool {
	return Level(next) >= Level(cur)
}
