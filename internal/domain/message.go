package domain

import (
	"strings"
	"time"
)

// Message is a single mailbox message as handed to the pipeline.
type Message struct {
	ID      string // RFC822 Message-ID, or a content hash when the header is missing
	UID     uint32 // mailbox UID, only meaningful inside one session
	From    string
	Subject string
	Body    string
	Snippet string
	Date    time.Time
	Flagged bool // starred
}

// Text returns the body, falling back to the snippet.
func (m Message) Text() string {
	if strings.TrimSpace(m.Body) != "" {
		return m.Body
	}
	return m.Snippet
}

// FullText is subject and body joined the way the classifier and the
// deletion policy look at a message.
func (m Message) FullText() string {
	return m.Subject + " " + m.Text()
}
