package escalate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmail-engine/internal/domain"
)

func testOllama(gen func(ctx context.Context, prompt string) (string, error)) *Ollama {
	cfg := DefaultOllamaConfig()
	cfg.Timeout = time.Second
	cfg.RetryDelay = time.Millisecond
	return &Ollama{cfg: cfg, generate: gen}
}

func TestOllamaClassify(t *testing.T) {
	var prompt string
	o := testOllama(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Sure! {\"company_name\": \"Globex\", \"position\": \"SRE\", \"status\": \"interview scheduled\"}", nil
	})

	got, err := o.Classify(context.Background(), "talent@globex.com", "Hello", "Let's talk")
	require.NoError(t, err)
	assert.Equal(t, Candidate{Company: "Globex", Position: "SRE", Status: domain.StatusInterviewing}, got)
	assert.Contains(t, prompt, "From: talent@globex.com")
	assert.Contains(t, prompt, "Subject: Hello")
}

func TestOllamaRetriesOnlyTimeouts(t *testing.T) {
	t.Run("timeouts are retried", func(t *testing.T) {
		calls := 0
		o := testOllama(func(context.Context, string) (string, error) {
			calls++
			if calls < 3 {
				return "", context.DeadlineExceeded
			}
			return `{"company": "Acme", "job_title": "Engineer", "status": "Offer"}`, nil
		})

		got, err := o.Classify(context.Background(), "", "", "")
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, Candidate{Company: "Acme", Position: "Engineer", Status: domain.StatusOffer}, got)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		calls := 0
		o := testOllama(func(context.Context, string) (string, error) {
			calls++
			return "", context.DeadlineExceeded
		})

		_, err := o.Classify(context.Background(), "", "", "")
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		o := testOllama(func(context.Context, string) (string, error) {
			calls++
			return "", errors.New("connection refused")
		})

		_, err := o.Classify(context.Background(), "", "", "")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestParseCandidate(t *testing.T) {
	_, err := parseCandidate("I cannot help with that")
	assert.ErrorIs(t, err, errNoJSON)

	_, err = parseCandidate("{not json}")
	assert.Error(t, err)

	got, err := parseCandidate(`{"company_name": "Initech", "status": "we regret to say: rejected"}`)
	require.NoError(t, err)
	assert.Equal(t, "Initech", got.Company)
	assert.Equal(t, "", got.Position)
	assert.Equal(t, domain.StatusRejected, got.Status)
}

func TestParseCandidateFromChattyOutput(t *testing.T) {
	// the model is asked for JSON only but free-form output is still parsed
	out := "Here you go:\n```json\n{\"company\": \"Hooli\", \"position\": \"Data Engineer\", \"status\": \"Applied\"}\n```\nGood luck!"
	got, err := parseCandidate(out)
	require.NoError(t, err)
	assert.Equal(t, Candidate{Company: "Hooli", Position: "Data Engineer", Status: domain.StatusApplied}, got)
}

func TestNewOllamaFillsDefaults(t *testing.T) {
	o, err := NewOllama(OllamaConfig{Host: "http://127.0.0.1:1", MaxRetries: -1})
	require.NoError(t, err)
	def := DefaultOllamaConfig()
	assert.Equal(t, def.Model, o.cfg.Model)
	assert.Equal(t, def.Timeout, o.cfg.Timeout)
	assert.Equal(t, 0, o.cfg.MaxRetries)
	assert.NotNil(t, o.generate)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, domain.StatusOffer, normalizeStatus("offer"))
	assert.Equal(t, domain.StatusRejected, normalizeStatus("Denied"))
	assert.Equal(t, domain.StatusInterviewing, normalizeStatus("Phone interview"))
	assert.Equal(t, domain.StatusApplied, normalizeStatus(""))
	assert.Equal(t, domain.StatusApplied, normalizeStatus("pending"))
}

func TestBuildPromptClipsBody(t *testing.T) {
	o := testOllama(nil)
	o.cfg.MaxBody = 10
	body := strings.Repeat("x", 50)
	p := buildPrompt("", "", clipRunes(body, o.cfg.MaxBody))
	assert.Contains(t, p, "From: Unknown")
	assert.Contains(t, p, "Subject: No subject")
	assert.NotContains(t, p, strings.Repeat("x", 11))
}
