// Package extract derives the employer and role title from a single message.
//
// Both fields are resolved through ordered fallback chains. The first matcher
// that yields an acceptable candidate wins, and a miss always resolves to the
// "Unknown" / "Not specified" sentinels.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/patterns"
)

type Options struct {
	// BodyExcerpt bounds how much of the body company patterns see.
	BodyExcerpt int
	// PositionExcerpt bounds how much of the body position patterns see.
	PositionExcerpt int

	MinCompanyLen  int
	MaxCompanyLen  int
	MinPositionLen int
	MaxPositionLen int

	GenericProviders   []string
	LocalPartProviders []string
	SenderPrefixes     []string
	EasyApplySenders   []string
	PositionKeywords   []string
}

func DefaultOptions() Options {
	return Options{
		BodyExcerpt:        500,
		PositionExcerpt:    500,
		MinCompanyLen:      2,
		MaxCompanyLen:      50,
		MinPositionLen:     5,
		MaxPositionLen:     60,
		GenericProviders:   patterns.GenericProviders,
		LocalPartProviders: patterns.LocalPartProviders,
		SenderPrefixes:     patterns.SenderPrefixes,
		EasyApplySenders:   patterns.EasyApplySenders,
		PositionKeywords:   patterns.PositionKeywords,
	}
}

// matcher proposes a candidate for one field of a message.
type matcher func(m domain.Message) (string, domain.Source, bool)

// Extractor is safe for concurrent use; it holds no per-message state.
type Extractor struct {
	opts Options

	generic   map[string]bool
	localPart map[string]bool
	prefixes  map[string]bool
	skipped   map[string]bool
	keywords  []string

	companyChain  []matcher
	positionChain []matcher
}

func New(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.BodyExcerpt <= 0 {
		opts.BodyExcerpt = def.BodyExcerpt
	}
	if opts.PositionExcerpt <= 0 {
		opts.PositionExcerpt = def.PositionExcerpt
	}
	if opts.MinCompanyLen <= 0 {
		opts.MinCompanyLen = def.MinCompanyLen
	}
	if opts.MaxCompanyLen <= 0 {
		opts.MaxCompanyLen = def.MaxCompanyLen
	}
	if opts.MinPositionLen <= 0 {
		opts.MinPositionLen = def.MinPositionLen
	}
	if opts.MaxPositionLen <= 0 {
		opts.MaxPositionLen = def.MaxPositionLen
	}
	if opts.GenericProviders == nil {
		opts.GenericProviders = def.GenericProviders
	}
	if opts.LocalPartProviders == nil {
		opts.LocalPartProviders = def.LocalPartProviders
	}
	if opts.SenderPrefixes == nil {
		opts.SenderPrefixes = def.SenderPrefixes
	}
	if opts.EasyApplySenders == nil {
		opts.EasyApplySenders = def.EasyApplySenders
	}
	if len(opts.PositionKeywords) == 0 {
		opts.PositionKeywords = def.PositionKeywords
	}

	e := &Extractor{
		opts:      opts,
		generic:   set(opts.GenericProviders),
		localPart: set(opts.LocalPartProviders),
		prefixes:  set(opts.SenderPrefixes),
		skipped:   set(patterns.SkippedSubdomains),
		keywords:  lower(opts.PositionKeywords),
	}

	e.companyChain = []matcher{
		e.easyApply,
		e.companyFromDomain,
		e.companyFromSubject,
		e.companyFromBody,
	}
	e.positionChain = []matcher{
		e.positionFromSubject,
		e.positionFromBody,
	}
	return e
}

// Extract never fails.
func (e *Extractor) Extract(m domain.Message) domain.ExtractionResult {
	m.Subject = normalizeQuotes(m.Subject)
	m.Body = normalizeQuotes(m.Text())

	res := domain.ExtractionResult{
		Company:        domain.UnknownCompany,
		CompanySource:  domain.SourceNone,
		Position:       domain.UnspecifiedPosition,
		PositionSource: domain.SourceNone,
	}
	if c, src, ok := first(e.companyChain, m); ok {
		res.Company, res.CompanySource = c, src
	}
	if p, src, ok := first(e.positionChain, m); ok {
		res.Position, res.PositionSource = p, src
	}
	return res
}

func first(chain []matcher, m domain.Message) (string, domain.Source, bool) {
	for _, fn := range chain {
		if v, src, ok := fn(m); ok {
			return v, src, true
		}
	}
	return "", "", false
}

// ---------------- shared helpers ----------------

var reAddr = regexp.MustCompile(`([\w.+-]+)@([\w.-]+)`)

// senderAddress returns the lowercased local part and domain of a From value
// such as `"Acme Talent" <talent@acme.com>`.
func senderAddress(from string) (local, host string, ok bool) {
	m := reAddr.FindStringSubmatch(from)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.ToLower(strings.TrimRight(m[2], ".")), true
}

// SenderDomain returns the lowercased host of the sender address, or "".
func SenderDomain(from string) string {
	_, host, ok := senderAddress(from)
	if !ok {
		return ""
	}
	return host
}

func clean(s string, rules []patterns.Rewrite) string {
	s = strings.TrimSpace(s)
	for _, r := range rules {
		s = r.Re.ReplaceAllString(s, r.With)
	}
	return strings.TrimSpace(s)
}

func titleCase(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.English).String(s)
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func normalizeQuotes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`).Replace(s)
}

func set(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" {
			m[x] = true
		}
	}
	return m
}

func lower(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
