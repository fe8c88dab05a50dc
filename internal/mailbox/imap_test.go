package mailbox

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-imap/v2/imapserver"
	"github.com/emersion/go-imap/v2/imapserver/imapmemserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobmail-engine/internal/domain"
)

const (
	testUser     = "me@example.com"
	testPassword = "app-password"
)

type seed struct {
	raw   string
	date  time.Time
	flags []imap.Flag
}

func day(d int) time.Time { return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC) }

// inboxSeeds get UIDs 1..6 in order.
var inboxSeeds = []seed{
	{raw: `From: careers@acme.com
Subject: Application received - Acme
Message-ID: <1@acme.com>

We received your application for Backend Engineer.
`, date: day(10)},
	{raw: `From: talent@globex.com
Subject: Interview invitation
Message-ID: <2@globex.com>

Pick a slot.
`, date: day(11), flags: []imap.Flag{imap.FlagFlagged}},
	{raw: `From: friend@example.org
Subject: Lunch plans
Message-ID: <3@example.org>

Tacos?
`, date: day(12)},
	{raw: `From: noreply@jobs.initech.com
Subject: Thanks from Initech

We got your application and will be in touch.
`, date: day(13)},
	{raw: `From: hr@hooli.com
Subject: Offer letter
Message-ID: <5@hooli.com>

Congratulations.
`, date: day(14)},
	{raw: `From: careers@oldco.com
Subject: Your application to Oldco
Message-ID: <6@oldco.com>

Too old for the window.
`, date: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)},
}

var testTerms = []Term{
	{"subject", "application"},
	{"subject", "interview"},
	{"subject", "offer"},
	{"text", "your application"},
}

func newTestIMAP(t *testing.T) *IMAP {
	t.Helper()

	mem := imapmemserver.New()
	user := imapmemserver.NewUser(testUser, testPassword)
	require.NoError(t, user.Create("INBOX", nil))
	require.NoError(t, user.Create("Trash", nil))
	for _, s := range inboxSeeds {
		_, err := user.Append("INBOX", bytes.NewReader(crlf(s.raw)), &imap.AppendOptions{Time: s.date, Flags: s.flags})
		require.NoError(t, err)
	}
	mem.AddUser(user)

	server := imapserver.New(&imapserver.Options{
		NewSession: func(*imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		InsecureAuth: true,
		Caps: imap.CapSet{
			imap.CapIMAP4rev1: {},
			imap.CapIMAP4rev2: {},
		},
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	m, err := login(context.Background(), imapclient.New(conn, nil), Config{
		Addr:     ln.Addr().String(),
		Username: testUser,
		Inbox:    "INBOX",
		Trash:    "Trash",
	}, testPassword, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = m.Close()
		_ = server.Close()
	})
	return m
}

func ids(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func mailboxSize(t *testing.T, m *IMAP, name string) uint32 {
	t.Helper()
	data, err := m.c.Status(name, &imap.StatusOptions{NumMessages: true}).Wait()
	require.NoError(t, err)
	require.NotNil(t, data.NumMessages)
	return *data.NumMessages
}

func TestLoginRejectsBadPassword(t *testing.T) {
	mem := imapmemserver.New()
	mem.AddUser(imapmemserver.NewUser(testUser, testPassword))
	server := imapserver.New(&imapserver.Options{
		NewSession: func(*imapserver.Conn) (imapserver.Session, *imapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		InsecureAuth: true,
		Caps:         imap.CapSet{imap.CapIMAP4rev2: {}},
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = server.Serve(ln) }()
	defer server.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	_, err = login(context.Background(), imapclient.New(conn, nil), Config{Username: testUser}, "wrong", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap login")
}

func TestSearchUnionsTermsNewestFirst(t *testing.T) {
	m := newTestIMAP(t)
	ctx := context.Background()

	msgs, err := m.Search(ctx, Query{Since: day(1), Terms: testTerms})
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	// UIDs descending; <1@acme.com> matches two terms but appears once
	var uids []uint32
	for _, msg := range msgs {
		uids = append(uids, msg.UID)
	}
	assert.Equal(t, []uint32{5, 4, 2, 1}, uids)

	assert.Equal(t, "<5@hooli.com>", msgs[0].ID)
	assert.True(t, IsHashID(msgs[1].ID), "message without Message-ID gets a content hash id")
	assert.Equal(t, "<2@globex.com>", msgs[2].ID)
	assert.Equal(t, "<1@acme.com>", msgs[3].ID)

	assert.Equal(t, "Interview invitation", msgs[2].Subject)
	assert.True(t, msgs[2].Flagged)
	assert.False(t, msgs[3].Flagged)
	assert.Contains(t, msgs[3].Body, "Backend Engineer")
}

func TestSearchCapsAtMax(t *testing.T) {
	m := newTestIMAP(t)

	msgs, err := m.Search(context.Background(), Query{Since: day(1), Max: 2, Terms: testTerms})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, uint32(5), msgs[0].UID)
	assert.Equal(t, uint32(4), msgs[1].UID)
}

func TestSearchWithoutWindowSeesOldMail(t *testing.T) {
	m := newTestIMAP(t)

	msgs, err := m.Search(context.Background(), Query{Terms: []Term{{"subject", "application"}}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"<1@acme.com>", "<6@oldco.com>"}, ids(msgs))
}

func TestTrashMovesByUID(t *testing.T) {
	m := newTestIMAP(t)
	ctx := context.Background()

	msgs, err := m.Search(ctx, Query{Since: day(1), Terms: testTerms})
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	// trash the Globex interview and the hash-id message
	require.NoError(t, m.Trash(ctx, []domain.Message{msgs[1], msgs[2]}))

	assert.Equal(t, uint32(4), mailboxSize(t, m, "INBOX"))
	assert.Equal(t, uint32(2), mailboxSize(t, m, "Trash"))

	left, err := m.Search(ctx, Query{Since: day(1), Terms: testTerms})
	require.NoError(t, err)
	assert.Equal(t, []string{"<5@hooli.com>", "<1@acme.com>"}, ids(left))
}

func TestTrashWithoutTrashMailbox(t *testing.T) {
	m := newTestIMAP(t)
	m.cfg.Trash = ""

	assert.NoError(t, m.Trash(context.Background(), nil))
	assert.Error(t, m.Trash(context.Background(), []domain.Message{{UID: 1}}))
	_, err := m.Restore(context.Background(), []string{"<1@acme.com>"})
	assert.Error(t, err)
}

func TestRestoreFindsByMessageID(t *testing.T) {
	m := newTestIMAP(t)
	ctx := context.Background()

	msgs, err := m.Search(ctx, Query{Since: day(1), Terms: testTerms})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	hashed := msgs[1].ID
	require.True(t, IsHashID(hashed))

	require.NoError(t, m.Trash(ctx, msgs))
	assert.Equal(t, uint32(4), mailboxSize(t, m, "Trash"))

	found, err := m.Restore(ctx, []string{"<1@acme.com>", hashed, "<5@hooli.com>", "<gone@nowhere>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"<1@acme.com>", "<5@hooli.com>"}, found)

	// hash ids have no header to search on, so that message stays in trash
	assert.Equal(t, uint32(2), mailboxSize(t, m, "Trash"))

	back, err := m.Search(ctx, Query{Since: day(1), Terms: testTerms})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"<1@acme.com>", "<5@hooli.com>"}, ids(back))
}

func TestRestoreNothingFound(t *testing.T) {
	m := newTestIMAP(t)

	found, err := m.Restore(context.Background(), []string{"<gone@nowhere>", "sha1:abc"})
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, uint32(0), mailboxSize(t, m, "Trash"))
}
