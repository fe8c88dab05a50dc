package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jobmail-engine/internal/patterns"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Mailbox struct {
		IMAPHost          string   `yaml:"imap_host"`
		IMAPPort          int      `yaml:"imap_port"`
		Username          string   `yaml:"username"`
		Inbox             string   `yaml:"inbox"`
		Trash             string   `yaml:"trash"`
		RequestsPerSecond float64  `yaml:"requests_per_second"`
		Burst             int      `yaml:"burst"`
		SubjectTerms      []string `yaml:"subject_terms"`
		TextTerms         []string `yaml:"text_terms"`
	} `yaml:"mailbox"`

	Extraction struct {
		BodyExcerpt      int      `yaml:"body_excerpt"`
		PositionExcerpt  int      `yaml:"position_excerpt"`
		GenericProviders []string `yaml:"generic_providers"`
		// ATS domains whose local part names the employer (acme@myworkday.com)
		LocalPartProviders []string `yaml:"local_part_providers"`
		SenderPrefixes     []string `yaml:"sender_prefixes"`
		EasyApplySenders   []string `yaml:"easy_apply_senders"`
		PositionKeywords   []string `yaml:"position_keywords"`
	} `yaml:"extraction"`

	Confidence struct {
		High   float64 `yaml:"high"`
		Medium float64 `yaml:"medium"`
	} `yaml:"confidence"`

	Escalation struct {
		Enabled           bool   `yaml:"enabled"`
		Host              string `yaml:"host"`
		Model             string `yaml:"model"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
		MaxRetries        int    `yaml:"max_retries"`
		RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
		MaxBodyChars      int    `yaml:"max_body_chars"`
	} `yaml:"escalation"`

	Deletion struct {
		Enabled        bool     `yaml:"enabled"`
		DeleteApplied  bool     `yaml:"delete_applied"`
		DeleteRejected bool     `yaml:"delete_rejected"`
		SafetyKeywords []string `yaml:"safety_keywords"`
	} `yaml:"deletion"`

	Store struct {
		Path       string `yaml:"path"`
		Backup     bool   `yaml:"backup"`
		BackupDir  string `yaml:"backup_dir"`
		BackupKeep int    `yaml:"backup_keep"`
	} `yaml:"store"`

	Scan struct {
		Workers      int `yaml:"workers"`
		PreviewHours int `yaml:"preview_hours"`
		SinceDays    int `yaml:"since_days"`
		MaxMessages  int `yaml:"max_messages"`
	} `yaml:"scan"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | console
	} `yaml:"logging"`
}

// Default is a complete, valid configuration apart from the mailbox
// credentials.
func Default() Config {
	var c Config
	c.App.DataDir = DefaultDataDir()

	c.Mailbox.IMAPHost = "imap.gmail.com"
	c.Mailbox.IMAPPort = 993
	c.Mailbox.Inbox = "INBOX"
	c.Mailbox.Trash = "[Gmail]/Trash"
	c.Mailbox.RequestsPerSecond = 10
	c.Mailbox.Burst = 5
	c.Mailbox.SubjectTerms = []string{
		"application", "applied", "thank you for applying",
		"interview", "phone screen", "next steps",
		"offer", "job offer", "offer letter",
		"rejection", "not moving forward",
	}
	c.Mailbox.TextTerms = []string{"your application", "application status"}

	c.Extraction.BodyExcerpt = 500
	c.Extraction.PositionExcerpt = 500
	c.Extraction.GenericProviders = clone(patterns.GenericProviders)
	c.Extraction.LocalPartProviders = clone(patterns.LocalPartProviders)
	c.Extraction.SenderPrefixes = clone(patterns.SenderPrefixes)
	c.Extraction.EasyApplySenders = clone(patterns.EasyApplySenders)
	c.Extraction.PositionKeywords = clone(patterns.PositionKeywords)

	c.Confidence.High = 0.70
	c.Confidence.Medium = 0.40

	c.Escalation.Host = "http://localhost:11434"
	c.Escalation.Model = "llama3.2:3b"
	c.Escalation.TimeoutSeconds = 30
	c.Escalation.MaxRetries = 2
	c.Escalation.RetryDelaySeconds = 5
	c.Escalation.MaxBodyChars = 2000

	c.Deletion.Enabled = true
	c.Deletion.DeleteApplied = true
	c.Deletion.DeleteRejected = true
	c.Deletion.SafetyKeywords = clone(patterns.SafetyKeywords)

	c.Store.Backup = true
	c.Store.BackupKeep = 10

	c.Scan.Workers = 4
	c.Scan.PreviewHours = 24
	c.Scan.SinceDays = 90
	c.Scan.MaxMessages = 10000

	c.Logging.Level = "info"
	c.Logging.Format = "console"
	return c
}

// DefaultDataDir is $JOBMAIL_HOME, or ~/.jobmail.
func DefaultDataDir() string {
	if d := strings.TrimSpace(os.Getenv("JOBMAIL_HOME")); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobmail"
	}
	return filepath.Join(home, ".jobmail")
}

// Load reads a YAML config over Default. A .env file next to the config
// or in the working directory is loaded first, and ${VAR} references in
// the file are expanded from the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, envFile := range []string{filepath.Join(filepath.Dir(path), ".env"), ".env"} {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(b))), &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.App.DataDir = expandHome(cfg.App.DataDir)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Store.BackupDir = expandHome(cfg.Store.BackupDir)
	return cfg, nil
}

var reEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${NAME}; unset variables are left as written.
func expandEnvVars(content string) string {
	return reEnvVar.ReplaceAllStringFunc(content, func(match string) string {
		if v, ok := os.LookupEnv(match[2 : len(match)-1]); ok && v != "" {
			return v
		}
		return match
	})
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.App.DataDir, "jobmail.db")
}

func (c Config) BackupDir() string {
	if c.Store.BackupDir != "" {
		return c.Store.BackupDir
	}
	return filepath.Join(c.App.DataDir, "backups")
}

func (c Config) AuditLogPath() string { return filepath.Join(c.App.DataDir, "deletions.log") }
func (c Config) LockPath() string     { return filepath.Join(c.App.DataDir, "jobmail.lock") }

// IMAPAddr joins host and port.
func (c Config) IMAPAddr() string {
	return net.JoinHostPort(c.Mailbox.IMAPHost, strconv.Itoa(c.Mailbox.IMAPPort))
}

func clone(xs []string) []string { return append([]string(nil), xs...) }
