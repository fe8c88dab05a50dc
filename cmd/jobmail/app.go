package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmail-engine/internal/confidence"
	"jobmail-engine/internal/config"
	"jobmail-engine/internal/deletion"
	"jobmail-engine/internal/escalate"
	"jobmail-engine/internal/extract"
	"jobmail-engine/internal/logging"
	"jobmail-engine/internal/mailbox"
	"jobmail-engine/internal/scan"
	"jobmail-engine/internal/secrets"
	"jobmail-engine/internal/store"
)

// app is what every command needs: a validated config and a logger.
type app struct {
	cfg  config.Config
	path string
	log  *zap.Logger
}

func loadApp() (*app, error) {
	path := cfgPath
	created := false
	if path == "" {
		var err error
		path, created, err = config.EnsureUserConfig(config.DefaultDataDir())
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		return nil, fmt.Errorf("invalid config %s:\n  %s", path, strings.Join(v.Errors, "\n  "))
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if created {
		log.Info("wrote default config", zap.String("path", path))
	}
	for _, w := range v.Warnings {
		log.Warn(w)
	}
	if err := os.MkdirAll(cfg.App.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &app{cfg: cfg, path: path, log: log}, nil
}

func (a *app) close() { _ = a.log.Sync() }

func (a *app) openStore() (*store.DB, error) {
	db, err := store.Open(a.cfg.StorePath())
	if err != nil {
		return nil, err
	}
	a.log.Debug("store opened", zap.String("path", db.Path()))
	return db, nil
}

func (a *app) dialMailbox(ctx context.Context) (*mailbox.IMAP, error) {
	if strings.TrimSpace(a.cfg.Mailbox.Username) == "" {
		return nil, errors.New("mailbox.username is not set (edit " + a.path + ")")
	}
	pw, src, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(a.cfg))
	if err != nil {
		return nil, err
	}
	a.log.Debug("imap password loaded", zap.String("source", string(src)))

	return mailbox.Dial(ctx, mailbox.Config{
		Addr:              a.cfg.IMAPAddr(),
		Username:          a.cfg.Mailbox.Username,
		Inbox:             a.cfg.Mailbox.Inbox,
		Trash:             a.cfg.Mailbox.Trash,
		RequestsPerSecond: a.cfg.Mailbox.RequestsPerSecond,
		Burst:             a.cfg.Mailbox.Burst,
	}, pw, a.log)
}

// terms turns the configured subject and text terms into mailbox searches.
func (a *app) terms() []mailbox.Term {
	var out []mailbox.Term
	for _, s := range a.cfg.Mailbox.SubjectTerms {
		out = append(out, mailbox.Term{Field: "subject", Value: s})
	}
	for _, s := range a.cfg.Mailbox.TextTerms {
		out = append(out, mailbox.Term{Field: "text", Value: s})
	}
	return out
}

func (a *app) extractOptions() extract.Options {
	e := a.cfg.Extraction
	opts := extract.DefaultOptions()
	opts.BodyExcerpt = e.BodyExcerpt
	opts.PositionExcerpt = e.PositionExcerpt
	opts.GenericProviders = e.GenericProviders
	opts.LocalPartProviders = e.LocalPartProviders
	opts.SenderPrefixes = e.SenderPrefixes
	opts.EasyApplySenders = e.EasyApplySenders
	opts.PositionKeywords = e.PositionKeywords
	return opts
}

// runner builds the scan pipeline. useAI forces escalation on for this run.
func (a *app) runner(mb scan.Mailbox, db scan.Store, audit *zap.Logger, useAI bool) (*scan.Runner, error) {
	scorer := confidence.NewScorer(confidence.Thresholds{
		High:   a.cfg.Confidence.High,
		Medium: a.cfg.Confidence.Medium,
	})

	enabled := a.cfg.Escalation.Enabled || useAI
	var ai escalate.Classifier
	if enabled {
		e := a.cfg.Escalation
		o, err := escalate.NewOllama(escalate.OllamaConfig{
			Host:       e.Host,
			Model:      e.Model,
			Timeout:    time.Duration(e.TimeoutSeconds) * time.Second,
			MaxRetries: e.MaxRetries,
			RetryDelay: time.Duration(e.RetryDelaySeconds) * time.Second,
			MaxBody:    e.MaxBodyChars,
		})
		if err != nil {
			return nil, err
		}
		ai = o
		a.log.Info("secondary classifier enabled", zap.String("model", e.Model), zap.String("host", e.Host))
	}

	keywords := deletion.NewKeywordSet(a.cfg.Deletion.SafetyKeywords)
	a.log.Debug("safety keywords loaded",
		zap.Int("count", keywords.Len()),
		zap.Strings("keywords", keywords.Words()))

	return scan.New(scan.Deps{
		Mailbox:   mb,
		Store:     db,
		Extractor: extract.New(a.extractOptions()),
		Scorer:    scorer,
		Escalator: escalate.New(ai, scorer, enabled, a.log),
		Keywords:  keywords,
		Audit:     audit,
		Log:       a.log,
	}), nil
}

// session holds the lock, store, mailbox and audit log a mutating command
// works with. close releases them in reverse order.
type session struct {
	db      *store.DB
	mb      *mailbox.IMAP
	audit   *zap.Logger
	closers []func() error
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	s := &session{}

	unlock, err := scan.Lock(a.cfg.LockPath())
	if errors.Is(err, scan.ErrLocked) {
		return nil, errors.New("another jobmail run is in progress")
	}
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, unlock)

	if s.db, err = a.openStore(); err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, s.db.Close)

	audit, closeAudit, err := logging.NewAudit(a.cfg.AuditLogPath())
	if err != nil {
		s.close()
		return nil, err
	}
	s.audit = audit
	s.closers = append(s.closers, closeAudit)

	if s.mb, err = a.dialMailbox(ctx); err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, s.mb.Close)
	return s, nil
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}
