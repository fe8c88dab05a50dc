package extract

import (
	"regexp"
	"strings"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/patterns"
)

func (e *Extractor) positionFromSubject(m domain.Message) (string, domain.Source, bool) {
	if p, ok := e.position(patterns.SubjectPosition, m.Subject); ok {
		return p, domain.SourceSubject, true
	}
	return "", "", false
}

func (e *Extractor) positionFromBody(m domain.Message) (string, domain.Source, bool) {
	if p, ok := e.position(patterns.BodyPosition, excerpt(m.Body, e.opts.PositionExcerpt)); ok {
		return p, domain.SourceBody, true
	}
	return "", "", false
}

func (e *Extractor) position(res []*regexp.Regexp, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, re := range res {
		sm := re.FindStringSubmatch(text)
		if len(sm) < 2 {
			continue
		}
		p := clean(sm[1], patterns.PositionCleanup)
		p = cutEmployer(p)
		if !e.acceptPosition(p) {
			continue
		}
		return titleCase(p), true
	}
	return "", false
}

var reAtEmployer = regexp.MustCompile(`(?i)\s+at\s+`)

// cutEmployer turns "Engineer at Acme" into "Engineer". The match offsets
// index p itself, never a case-folded copy whose byte length may differ.
func cutEmployer(p string) string {
	if loc := reAtEmployer.FindStringIndex(p); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(p[:loc[0]])
	}
	return p
}

// acceptPosition rejects captures that are grammatically plausible but do
// not read like a role title.
func (e *Extractor) acceptPosition(p string) bool {
	n := runeLen(p)
	if n < e.opts.MinPositionLen || n > e.opts.MaxPositionLen {
		return false
	}
	if strings.Contains(p, ".") {
		return false
	}
	lp := strings.ToLower(p)
	for _, kw := range e.keywords {
		if strings.Contains(lp, kw) {
			return true
		}
	}
	return false
}
