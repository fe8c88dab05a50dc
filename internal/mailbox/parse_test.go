package mailbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte { return []byte(strings.ReplaceAll(s, "\n", "\r\n")) }

func TestParseMultipartPrefersPlain(t *testing.T) {
	raw := crlf(`From: Gem Recruiting <no-reply@ashbyhq.com>
To: me@example.com
Subject: Thank you for applying to Gem
Date: Fri, 14 Mar 2026 09:30:00 +0000
Message-ID: <abc123@ashbyhq.com>
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

We received your application for Software Engineer.
--b1
Content-Type: text/html; charset=utf-8

<html><body><p>We received <b>your application</b></p></body></html>
--b1--
`)

	m := Parse(raw)
	assert.Equal(t, "<abc123@ashbyhq.com>", m.ID)
	assert.Equal(t, "Gem Recruiting <no-reply@ashbyhq.com>", m.From)
	assert.Equal(t, "Thank you for applying to Gem", m.Subject)
	assert.Equal(t, "We received your application for Software Engineer.", m.Body)
	assert.Equal(t, m.Body, m.Snippet)
	assert.True(t, m.Date.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
}

func TestParseHTMLOnly(t *testing.T) {
	raw := crlf(`From: careers@acme.com
Subject: =?UTF-8?Q?Interview_invitation_=E2=80=93_Acme?=
Message-ID: <i1@acme.com>
MIME-Version: 1.0
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: quoted-printable

<html><head><title>ignored</title><style>p{color:red}</style></head><body>=
<p>Hi&nbsp;there,</p><p>We would like to <b>schedule a phone screen</b>.</p>=
<script>var x=1;</script></body></html>
`)

	m := Parse(raw)
	assert.Equal(t, "Interview invitation – Acme", m.Subject)
	assert.Equal(t, "careers@acme.com", m.From)
	assert.Equal(t, "Hi there, We would like to schedule a phone screen.", m.Body)
	assert.NotContains(t, m.Body, "ignored")
	assert.NotContains(t, m.Body, "var x")
}

func TestParseMissingMessageIDHashes(t *testing.T) {
	raw := crlf(`From: jobs@globex.com
Subject: Your application
Date: Fri, 14 Mar 2026 09:30:00 +0000
Content-Type: text/plain

Unfortunately we will not be moving forward.
`)
	a := Parse(raw)
	b := Parse(raw)
	assert.True(t, IsHashID(a.ID))
	assert.Equal(t, a.ID, b.ID)
	assert.False(t, IsHashID("<x@y>"))
}

func TestParseSnippetIsClipped(t *testing.T) {
	body := strings.Repeat("é", 500)
	raw := crlf("From: a@b.com\nSubject: s\nMessage-ID: <s@b>\nContent-Type: text/plain; charset=utf-8\n\n" + body + "\n")
	m := Parse(raw)
	assert.Len(t, []rune(m.Snippet), snippetRunes)
	assert.Len(t, []rune(m.Body), 500)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(nil).ID)
}

func TestHTMLToTextSeparatesBlocks(t *testing.T) {
	got := htmlToText(`<table><tr><td>Acme</td><td>Engineer</td></tr></table><div>Next</div><br>steps`)
	assert.Equal(t, "Acme Engineer Next steps", got)
}

func TestCriteria(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	c := criteria(since, Term{Field: "subject", Value: "offer"})
	assert.Equal(t, since, c.Since)
	require.Len(t, c.Header, 1)
	assert.Equal(t, imap.SearchCriteriaHeaderField{Key: "Subject", Value: "offer"}, c.Header[0])

	c = criteria(since, Term{Field: "text", Value: "your application"})
	assert.Equal(t, []string{"your application"}, c.Text)
	assert.Empty(t, c.Header)

	assert.Equal(t, DefaultTerms, Query{}.terms())
	assert.Empty(t, Query{Terms: []Term{}}.terms())
}

func TestLimiterDisabledAndNil(t *testing.T) {
	ctx := context.Background()
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "search"))
	}

	var nilLim *Limiter
	assert.NoError(t, nilLim.Wait(ctx, "fetch"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := NewLimiter(0.001, 1)
	require.NoError(t, slow.Wait(ctx, "move"))
	assert.Error(t, slow.Wait(cancelled, "move"))
}
