package escalate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"jobmail-engine/internal/domain"
)

type OllamaConfig struct {
	Host       string
	Model      string
	Timeout    time.Duration // per attempt
	MaxRetries int           // retries after a timed-out attempt
	RetryDelay time.Duration
	MaxBody    int // runes of body included in the prompt
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:       "http://localhost:11434",
		Model:      "llama3.2:3b",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 5 * time.Second,
		MaxBody:    2000,
	}
}

// Ollama classifies messages with a local model served by Ollama.
type Ollama struct {
	cfg      OllamaConfig
	generate func(ctx context.Context, prompt string) (string, error)
}

func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	def := DefaultOllamaConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = def.MaxBody
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Host),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}

	return &Ollama{
		cfg: cfg,
		generate: func(ctx context.Context, prompt string) (string, error) {
			return llms.GenerateFromSinglePrompt(ctx, llm, prompt,
				llms.WithTemperature(0.1),
				llms.WithMaxTokens(256),
			)
		},
	}, nil
}

func (o *Ollama) Classify(ctx context.Context, from, subject, body string) (Candidate, error) {
	prompt := buildPrompt(from, subject, clipRunes(body, o.cfg.MaxBody))

	out, err := o.call(ctx, prompt)
	if err != nil {
		return Candidate{}, err
	}
	return parseCandidate(out)
}

// call retries only attempts that ran out of time; any other failure is
// returned immediately.
func (o *Ollama) call(ctx context.Context, prompt string) (string, error) {
	attempt := func() (string, error) {
		actx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()

		out, err := o.generate(actx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() == nil && isTimeout(err) {
			return "", err
		}
		return "", backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.cfg.RetryDelay), uint64(o.cfg.MaxRetries)),
		ctx,
	)
	out, err := backoff.RetryWithData[string](attempt, policy)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

const promptTemplate = `You read job application emails and report what they say.

EMAIL:
From: %s
Subject: %s
Body:
%s

Return one JSON object with these keys:
- "company_name": the hiring company
- "position": the job title applied for
- "status": one of "Applied", "Interviewing", "Rejected", "Offer"

Applied means the application was received. Interviewing means an interview,
phone screen, assessment or other next step was requested. Rejected means the
application will not move forward. Offer means a job offer was extended.

Use "Unknown" for an unknown company, "Not specified" for an unknown position
and "Applied" when the status is unclear. Output the JSON object only.`

func buildPrompt(from, subject, body string) string {
	if strings.TrimSpace(from) == "" {
		from = "Unknown"
	}
	if strings.TrimSpace(subject) == "" {
		subject = "No subject"
	}
	return fmt.Sprintf(promptTemplate, from, subject, body)
}

type answer struct {
	CompanyName string `json:"company_name"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	JobTitle    string `json:"job_title"`
	Status      string `json:"status"`
}

var errNoJSON = errors.New("no JSON object in model output")

func parseCandidate(out string) (Candidate, error) {
	raw := extractJSON(out)
	if raw == "" {
		return Candidate{}, errNoJSON
	}
	var a answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Candidate{}, fmt.Errorf("parse model output: %w", err)
	}

	c := Candidate{
		Company:  firstNonEmpty(a.CompanyName, a.Company),
		Position: firstNonEmpty(a.Position, a.JobTitle),
		Status:   normalizeStatus(a.Status),
	}
	return c, nil
}

// extractJSON returns the text between the first '{' and the last '}'.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func normalizeStatus(s string) domain.Status {
	if st, ok := domain.ParseStatus(s); ok {
		return st
	}
	ls := strings.ToLower(s)
	switch {
	case strings.Contains(ls, "interview"):
		return domain.StatusInterviewing
	case strings.Contains(ls, "reject"), strings.Contains(ls, "denied"):
		return domain.StatusRejected
	case strings.Contains(ls, "offer"):
		return domain.StatusOffer
	}
	return domain.StatusApplied
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func clipRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
