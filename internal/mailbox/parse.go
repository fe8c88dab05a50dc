package mailbox

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/net/html"

	"jobmail-engine/internal/domain"
)

const (
	maxPartBytes = 6 << 20
	snippetRunes = 200
	hashIDPrefix = "sha1:"
)

// Parse decodes a raw RFC822 message into a pipeline message. Header
// fields left empty by the envelope are filled from the raw headers, and
// a message without a Message-ID gets a stable content hash instead.
func Parse(raw []byte) domain.Message {
	var m domain.Message
	if len(raw) == 0 {
		return m
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		// not MIME at all; treat it as plain text
		m.Body = string(raw)
		m.Snippet = snippet(m.Body)
		m.ID = hashID(m)
		return m
	}
	defer mr.Close()

	h := mr.Header
	m.ID = strings.TrimSpace(h.Get("Message-Id"))
	if s, err := h.Subject(); err == nil {
		m.Subject = strings.TrimSpace(s)
	} else {
		m.Subject = strings.TrimSpace(h.Get("Subject"))
	}
	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		m.From = formatAddress(addrs[0])
	} else {
		m.From = strings.TrimSpace(h.Get("From"))
	}
	if d, err := h.Date(); err == nil {
		m.Date = d
	}

	plain, htmlPart := textParts(mr)
	m.Body = plain
	if strings.TrimSpace(m.Body) == "" && htmlPart != "" {
		m.Body = htmlToText(htmlPart)
	}
	m.Body = strings.TrimSpace(m.Body)
	m.Snippet = snippet(m.Body)

	if m.ID == "" {
		m.ID = hashID(m)
	}
	return m
}

// textParts keeps the largest text/plain and text/html inline parts.
func textParts(mr *mail.Reader) (plain, htmlPart string) {
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			break
		}

		ih, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := ih.ContentType()
		if err != nil {
			ct = "text/plain"
		}

		b, _ := io.ReadAll(io.LimitReader(p.Body, maxPartBytes))
		switch strings.ToLower(ct) {
		case "text/plain":
			if len(b) > len(plain) {
				plain = string(b)
			}
		case "text/html":
			if len(b) > len(htmlPart) {
				htmlPart = string(b)
			}
		}
	}
	return plain, htmlPart
}

var blockTags = "br, p, div, li, tr, td, th, h1, h2, h3, h4, h5, h6, table, section, blockquote"

func htmlToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("head, script, style, noscript").Remove()
	doc.Find(blockTags).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendNodes(&html.Node{Type: html.TextNode, Data: " "})
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func formatAddress(a *mail.Address) string {
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= snippetRunes {
		return s
	}
	return string(r[:snippetRunes])
}

func hashID(m domain.Message) string {
	key := m.From + "\x00" + m.Subject + "\x00" + m.Date.UTC().Format(time.RFC3339) + "\x00" + m.Snippet
	sum := sha1.Sum([]byte(key))
	return hashIDPrefix + hex.EncodeToString(sum[:])
}

// IsHashID reports whether id was synthesized because the message had no
// Message-ID header. Such messages cannot be found again on the server.
func IsHashID(id string) bool { return strings.HasPrefix(id, hashIDPrefix) }
