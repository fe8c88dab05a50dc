// Package mailbox talks to the user's mail server over IMAP: it searches
// for application mail, decodes it, and moves messages in and out of trash.
package mailbox

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"jobmail-engine/internal/domain"
)

const fetchBatch = 50

type Config struct {
	Addr     string // host:port, implicit TLS
	Username string
	Inbox    string
	Trash    string

	RequestsPerSecond float64
	Burst             int
}

// IMAP is a logged-in session. Commands are serialized because the
// selected mailbox is connection state.
type IMAP struct {
	mu       sync.Mutex
	c        *imapclient.Client
	cfg      Config
	lim      *Limiter
	log      *zap.Logger
	selected string
	stop     func() bool
}

// Dial connects over TLS and logs in. Cancelling ctx closes the connection.
func Dial(ctx context.Context, cfg Config, password string, log *zap.Logger) (*IMAP, error) {
	if cfg.Addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if cfg.Username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if cfg.Inbox == "" {
		cfg.Inbox = "INBOX"
	}
	if log == nil {
		log = zap.NewNop()
	}

	host, _, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("imap addr %q: %w", cfg.Addr, err)
	}
	c, err := imapclient.DialTLS(cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}
	return login(ctx, c, cfg, password, log)
}

// login authenticates an already connected client. The client is closed
// on failure.
func login(ctx context.Context, c *imapclient.Client, cfg Config, password string, log *zap.Logger) (*IMAP, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(cfg.Username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	log.Info("imap connected", zap.String("addr", cfg.Addr), zap.String("user", cfg.Username))
	return &IMAP{
		c:    c,
		cfg:  cfg,
		lim:  NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		log:  log,
		stop: stop,
	}, nil
}

func (m *IMAP) selectMailbox(ctx context.Context, name string) error {
	if m.selected == name {
		return nil
	}
	if err := m.lim.Wait(ctx, "select"); err != nil {
		return err
	}
	if _, err := m.c.Select(name, nil).Wait(); err != nil {
		return fmt.Errorf("imap select %q: %w", name, err)
	}
	m.selected = name
	return nil
}

// Search runs every query term against the inbox and returns the union,
// newest first. Bodies are fetched with BODY.PEEK[] so nothing is marked
// as read.
func (m *IMAP) Search(ctx context.Context, q Query) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.selectMailbox(ctx, m.cfg.Inbox); err != nil {
		return nil, err
	}

	seen := map[imap.UID]struct{}{}
	var uids []imap.UID
	for _, t := range q.terms() {
		if err := m.lim.Wait(ctx, "search"); err != nil {
			return nil, err
		}
		data, err := m.c.UIDSearch(criteria(q.Since, t), nil).Wait()
		if err != nil {
			// one bad term should not sink the scan
			m.log.Warn("imap search failed", zap.String("term", t.Value), zap.Error(err))
			continue
		}
		for _, uid := range data.AllUIDs() {
			if _, dup := seen[uid]; !dup {
				seen[uid] = struct{}{}
				uids = append(uids, uid)
			}
		}
	}

	// higher UID = delivered later
	slices.SortFunc(uids, func(a, b imap.UID) int { return cmp.Compare(b, a) })
	if q.Max > 0 && len(uids) > q.Max {
		uids = uids[:q.Max]
	}
	m.log.Debug("imap search", zap.Int("matched", len(uids)))

	out := make([]domain.Message, 0, len(uids))
	for start := 0; start < len(uids); start += fetchBatch {
		end := min(start+fetchBatch, len(uids))
		msgs, err := m.fetch(ctx, uids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func (m *IMAP) fetch(ctx context.Context, uids []imap.UID) ([]domain.Message, error) {
	if err := m.lim.Wait(ctx, "fetch"); err != nil {
		return nil, err
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	cmd := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Flags:        true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = cmd.Close() }()

	out := make([]domain.Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data := cmd.Next()
		if data == nil {
			break
		}
		buf, err := data.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		msg := Parse(buf.FindBodySection(bodyAll))
		msg.UID = uint32(buf.UID)
		msg.Flagged = slices.Contains(buf.Flags, imap.FlagFlagged)
		if env := buf.Envelope; env != nil {
			if msg.Subject == "" {
				msg.Subject = env.Subject
			}
			if msg.From == "" && len(env.From) > 0 {
				msg.From = env.From[0].Addr()
			}
			if msg.Date.IsZero() {
				msg.Date = env.Date
			}
		}
		if msg.Date.IsZero() {
			msg.Date = buf.InternalDate
		}
		out = append(out, msg)
	}

	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// Trash moves messages from the inbox into the trash mailbox, where the
// provider keeps them recoverable.
func (m *IMAP) Trash(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if m.cfg.Trash == "" {
		return errors.New("no trash mailbox configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.selectMailbox(ctx, m.cfg.Inbox); err != nil {
		return err
	}
	uids := make([]imap.UID, 0, len(msgs))
	for _, msg := range msgs {
		uids = append(uids, imap.UID(msg.UID))
	}
	if err := m.lim.Wait(ctx, "move"); err != nil {
		return err
	}
	if _, err := m.c.Move(imap.UIDSetNum(uids...), m.cfg.Trash).Wait(); err != nil {
		return fmt.Errorf("imap move to %q: %w", m.cfg.Trash, err)
	}
	return nil
}

// Restore looks the given Message-IDs up in trash and moves them back to
// the inbox. It returns the ids that were found and moved.
func (m *IMAP) Restore(ctx context.Context, messageIDs []string) ([]string, error) {
	if m.cfg.Trash == "" {
		return nil, errors.New("no trash mailbox configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.selectMailbox(ctx, m.cfg.Trash); err != nil {
		return nil, err
	}

	var (
		uids  []imap.UID
		found []string
	)
	for _, id := range messageIDs {
		if IsHashID(id) {
			continue
		}
		if err := m.lim.Wait(ctx, "search"); err != nil {
			return found, err
		}
		data, err := m.c.UIDSearch(&imap.SearchCriteria{
			Header: []imap.SearchCriteriaHeaderField{{Key: "Message-ID", Value: id}},
		}, nil).Wait()
		if err != nil {
			return found, fmt.Errorf("imap search trash: %w", err)
		}
		if hits := data.AllUIDs(); len(hits) > 0 {
			uids = append(uids, hits...)
			found = append(found, id)
		}
	}
	if len(uids) == 0 {
		return nil, nil
	}

	if err := m.lim.Wait(ctx, "move"); err != nil {
		return nil, err
	}
	if _, err := m.c.Move(imap.UIDSetNum(uids...), m.cfg.Inbox).Wait(); err != nil {
		return nil, fmt.Errorf("imap move to %q: %w", m.cfg.Inbox, err)
	}
	return found, nil
}

// Close logs out and closes the connection.
func (m *IMAP) Close() error {
	if m == nil || m.c == nil {
		return nil
	}
	m.stop()
	if err := m.c.Logout().Wait(); err != nil {
		m.log.Debug("imap logout", zap.Error(err))
	}
	return m.c.Close()
}
