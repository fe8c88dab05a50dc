package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmail-engine/internal/domain"
)

func TestExtractCompany(t *testing.T) {
	e := New(DefaultOptions())

	tests := []struct {
		name    string
		msg     domain.Message
		company string
		source  domain.Source
	}{
		{
			name: "domain",
			msg: domain.Message{
				From:    "Perplexity Recruiting <recruiting@perplexity.ai>",
				Subject: "Thank you for applying to Perplexity!",
				Body:    "We have received your application and we will review it shortly.",
			},
			company: "Perplexity",
			source:  domain.SourceDomain,
		},
		{
			name: "ats sender falls through to subject",
			msg: domain.Message{
				From:    "Gem <no-reply@ashbyhq.com>",
				Subject: "Application Update from Gem",
				Body:    "Unfortunately, we won't be advancing you",
			},
			company: "Gem",
			source:  domain.SourceSubject,
		},
		{
			name: "ats local part names the employer",
			msg: domain.Message{
				From:    "acme-corp@myworkday.com",
				Subject: "Thanks",
			},
			company: "Acme",
			source:  domain.SourceDomain,
		},
		{
			name: "easy apply sender",
			msg: domain.Message{
				From:    "LinkedIn <jobs-noreply@linkedin.com>",
				Subject: "Your application was sent to Stripe",
			},
			company: "Stripe",
			source:  domain.SourceSubject,
		},
		{
			name: "body",
			msg: domain.Message{
				From:    "someone@gmail.com",
				Subject: "Hello there",
				Body:    "Thank you for your interest in Northwind Traders. We will be in touch.",
			},
			company: "Northwind Traders",
			source:  domain.SourceBody,
		},
		{
			name: "curly apostrophe",
			msg: domain.Message{
				From:    "someone@gmail.com",
				Subject: "Hi",
				Body:    "Welcome to Acme’s application portal",
			},
			company: "Acme",
			source:  domain.SourceBody,
		},
		{
			name: "nothing matches",
			msg: domain.Message{
				From:    "someone@gmail.com",
				Subject: "Hello",
				Body:    "How are you",
			},
			company: domain.UnknownCompany,
			source:  domain.SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.msg)
			assert.Equal(t, tt.company, got.Company)
			assert.Equal(t, tt.source, got.CompanySource)
		})
	}
}

func TestExtractPosition(t *testing.T) {
	e := New(DefaultOptions())

	tests := []struct {
		name     string
		msg      domain.Message
		position string
		source   domain.Source
	}{
		{
			name:     "subject",
			msg:      domain.Message{From: "jobs@acme.com", Subject: "Application for Senior Backend Engineer - Acme"},
			position: "Senior Backend Engineer",
			source:   domain.SourceSubject,
		},
		{
			name: "body",
			msg: domain.Message{
				From:    "jobs@contoso.com",
				Subject: "Thanks",
				Body:    "Thank you for applying for the Data Analyst position at Contoso.",
			},
			position: "Data Analyst",
			source:   domain.SourceBody,
		},
		{
			name:     "capture without a role keyword",
			msg:      domain.Message{From: "jobs@acme.com", Subject: "Application for the summer party - HR"},
			position: domain.UnspecifiedPosition,
			source:   domain.SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.msg)
			assert.Equal(t, tt.position, got.Position)
			assert.Equal(t, tt.source, got.PositionSource)
		})
	}
}

func TestAcceptPosition(t *testing.T) {
	e := New(DefaultOptions())

	assert.True(t, e.acceptPosition("Platform Engineer"))
	assert.False(t, e.acceptPosition("Sr. Engineer"), "internal period")
	assert.False(t, e.acceptPosition("Dev"), "too short")
	assert.False(t, e.acceptPosition("Something Unrelated"), "no keyword")
	assert.False(t, e.acceptPosition("Principal Engineer for the Very Long Named Internal Platform Group"), "too long")
}

func TestExtractIsDeterministic(t *testing.T) {
	e := New(DefaultOptions())
	msg := domain.Message{
		From:    "talent@globex.io",
		Subject: "Your Staff Engineer application",
		Body:    "We received your application for the Staff Engineer role.",
	}
	first := e.Extract(msg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Extract(msg))
	}
}

func TestExtractFallsBackToSnippet(t *testing.T) {
	e := New(DefaultOptions())
	got := e.Extract(domain.Message{
		From:    "someone@gmail.com",
		Subject: "Hello",
		Snippet: "Thank you for your interest in Initech.",
	})
	assert.Equal(t, "Initech", got.Company)
	assert.Equal(t, domain.SourceBody, got.CompanySource)
}

func TestCutEmployer(t *testing.T) {
	tests := map[string]string{
		"Data Analyst at Contoso":    "Data Analyst",
		"Data Analyst AT Contoso":    "Data Analyst",
		"ȺȺȺ Engineer at Acme":       "ȺȺȺ Engineer",
		"Staff Engineer":             "Staff Engineer",
		"at Acme":                    "at Acme",
		"Platform Engineer\tat Acme": "Platform Engineer",
	}
	for in, want := range tests {
		assert.Equal(t, want, cutEmployer(in), in)
	}
}

func TestExtractSurvivesCaseFoldingGrowth(t *testing.T) {
	// U+023A is two bytes but lowercases to a three-byte rune.
	e := New(DefaultOptions())
	msg := domain.Message{
		From:    "jobs@acme.com",
		Subject: "Thanks",
		Body:    "Thanks for applying for the " + strings.Repeat("Ⱥ", 30) + " at Acme engineer position.",
	}

	var got domain.ExtractionResult
	assert.NotPanics(t, func() { got = e.Extract(msg) })
	assert.NotContains(t, strings.ToLower(got.Position), " at ")
	assert.NotEmpty(t, got.Company)
}
