package deletion

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// KeywordSet tests case-insensitive substring containment of any keyword in
// a single pass over the text.
type KeywordSet struct {
	words []string

	mu      sync.Mutex // the matcher keeps per-call state
	matcher *ahocorasick.Matcher
}

func NewKeywordSet(words []string) *KeywordSet {
	ks := &KeywordSet{}
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		ks.words = append(ks.words, w)
	}
	if len(ks.words) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.words)
	}
	return ks
}

// First returns the earliest keyword in list order that occurs in text.
func (ks *KeywordSet) First(text string) (string, bool) {
	if ks == nil || ks.matcher == nil || text == "" {
		return "", false
	}
	ks.mu.Lock()
	hits := ks.matcher.Match([]byte(strings.ToLower(text)))
	ks.mu.Unlock()
	if len(hits) == 0 {
		return "", false
	}
	best := hits[0]
	for _, i := range hits[1:] {
		if i < best {
			best = i
		}
	}
	return ks.words[best], true
}

// Words returns the normalized keywords in list order.
func (ks *KeywordSet) Words() []string {
	if ks == nil {
		return nil
	}
	return append([]string(nil), ks.words...)
}

func (ks *KeywordSet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.words)
}
