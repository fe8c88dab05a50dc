package extract

import (
	"regexp"
	"strings"

	"jobmail-engine/internal/domain"
	"jobmail-engine/internal/patterns"
)

// easyApply handles confirmations relayed by automated apply services. The
// sender domain names the service, so the employer must come from the text.
func (e *Extractor) easyApply(m domain.Message) (string, domain.Source, bool) {
	if !e.isEasyApply(m.From) {
		return "", "", false
	}
	if c, ok := e.capture(patterns.EasyApplySubject, m.Subject, nil); ok {
		return c, domain.SourceSubject, true
	}
	if c, ok := e.capture(patterns.EasyApplyBody, excerpt(m.Body, e.opts.BodyExcerpt), nil); ok {
		return c, domain.SourceBody, true
	}
	return "", "", false
}

func (e *Extractor) isEasyApply(from string) bool {
	local, host, ok := senderAddress(from)
	if !ok {
		return false
	}
	addr := local + "@" + host
	for _, s := range e.opts.EasyApplySenders {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if s == addr || s == host || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

// companyFromDomain reads the employer from the sender domain. The first
// label that is not a routing subdomain decides: a generic provider ends the
// step, except for vendors that put the employer in the local part.
func (e *Extractor) companyFromDomain(m domain.Message) (string, domain.Source, bool) {
	local, host, ok := senderAddress(m.From)
	if !ok {
		return "", "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return "", "", false
	}

	var candidate string
	for _, label := range labels[:len(labels)-1] {
		if label == "" || e.skipped[label] {
			continue
		}
		if e.generic[label] {
			if !e.localPart[label] {
				return "", "", false
			}
			candidate = e.localPartCandidate(local)
			if candidate == "" {
				return "", "", false
			}
			break
		}
		candidate = label
		break
	}
	if candidate == "" {
		// every label was a routing subdomain; fall back to the registrable label
		last := labels[len(labels)-2]
		if e.generic[last] {
			return "", "", false
		}
		candidate = last
	}

	name := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(candidate)
	name = patterns.DomainSuffix.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	name = titleCase(name)
	if !e.companyLenOK(name) {
		return "", "", false
	}
	return name, domain.SourceDomain, true
}

// localPartCandidate returns the local part when it plausibly names an
// employer rather than a mailbox role.
func (e *Extractor) localPartCandidate(local string) string {
	if i := strings.IndexByte(local, '+'); i >= 0 {
		local = local[:i]
	}
	local = strings.TrimSpace(local)
	if local == "" || e.prefixes[local] || e.generic[local] {
		return ""
	}
	if strings.IndexFunc(local, func(r rune) bool { return r >= 'a' && r <= 'z' }) < 0 {
		return ""
	}
	return local
}

func (e *Extractor) companyFromSubject(m domain.Message) (string, domain.Source, bool) {
	if c, ok := e.capture(patterns.SubjectCompany, m.Subject, patterns.SubjectGenericPhrases); ok {
		return c, domain.SourceSubject, true
	}
	return "", "", false
}

func (e *Extractor) companyFromBody(m domain.Message) (string, domain.Source, bool) {
	body := excerpt(m.Body, e.opts.BodyExcerpt)
	if c, ok := e.capture(patterns.BodyCompany, body, patterns.BodyGenericPhrases); ok {
		return c, domain.SourceBody, true
	}
	return "", "", false
}

// capture tries each pattern against text and returns the first cleaned
// candidate that passes the length bound and is not a generic phrase.
func (e *Extractor) capture(res []*regexp.Regexp, text string, reject []string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, re := range res {
		sm := re.FindStringSubmatch(text)
		if len(sm) < 2 {
			continue
		}
		c := clean(sm[1], patterns.CompanyCleanup)
		if !e.companyLenOK(c) {
			continue
		}
		if contains(reject, strings.ToLower(c)) {
			continue
		}
		return titleCase(c), true
	}
	return "", false
}

func (e *Extractor) companyLenOK(s string) bool {
	n := runeLen(s)
	return n >= e.opts.MinCompanyLen && n <= e.opts.MaxCompanyLen
}
