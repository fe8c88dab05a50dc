package mailbox

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// Term is one server-side search. Field is "subject" or "text".
type Term struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// DefaultTerms mirror the kinds of mail an application produces:
// confirmations, interview scheduling, offers and rejections.
var DefaultTerms = []Term{
	{"subject", "application"},
	{"subject", "applied"},
	{"subject", "thank you for applying"},
	{"subject", "interview"},
	{"subject", "phone screen"},
	{"subject", "next steps"},
	{"subject", "offer"},
	{"subject", "job offer"},
	{"subject", "offer letter"},
	{"subject", "rejection"},
	{"subject", "not moving forward"},
	{"text", "your application"},
	{"text", "application status"},
}

// Query selects the messages a scan looks at. The results of all terms
// are unioned, newest first, and capped at Max.
type Query struct {
	Since time.Time
	Max   int
	Terms []Term // nil means DefaultTerms
}

func (q Query) terms() []Term {
	if q.Terms == nil {
		return DefaultTerms
	}
	return q.Terms
}

func criteria(since time.Time, t Term) *imap.SearchCriteria {
	c := &imap.SearchCriteria{Since: since}
	switch t.Field {
	case "text":
		c.Text = []string{t.Value}
	default:
		c.Header = []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: t.Value}}
	}
	return c
}
