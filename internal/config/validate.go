package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong
// with it. Credentials are not checked here; the password lives in the
// keychain.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.App.DataDir = strings.TrimSpace(out.App.DataDir)
	out.Mailbox.IMAPHost = strings.TrimSpace(out.Mailbox.IMAPHost)
	out.Mailbox.Username = strings.TrimSpace(out.Mailbox.Username)
	out.Mailbox.SubjectTerms = trimList(out.Mailbox.SubjectTerms)
	out.Mailbox.TextTerms = trimList(out.Mailbox.TextTerms)
	out.Extraction.GenericProviders = trimList(out.Extraction.GenericProviders)
	out.Extraction.LocalPartProviders = trimList(out.Extraction.LocalPartProviders)
	out.Extraction.SenderPrefixes = trimList(out.Extraction.SenderPrefixes)
	out.Extraction.EasyApplySenders = trimList(out.Extraction.EasyApplySenders)
	out.Extraction.PositionKeywords = trimList(out.Extraction.PositionKeywords)
	out.Deletion.SafetyKeywords = trimList(out.Deletion.SafetyKeywords)
	out.Logging.Level = strings.ToLower(strings.TrimSpace(out.Logging.Level))
	out.Logging.Format = strings.ToLower(strings.TrimSpace(out.Logging.Format))

	// ---- app / mailbox ----

	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}
	if out.Mailbox.IMAPHost == "" {
		res.addErr("mailbox.imap_host is required")
	}
	if out.Mailbox.IMAPPort <= 0 || out.Mailbox.IMAPPort > 65535 {
		res.addErr("mailbox.imap_port must be 1..65535")
	}
	if out.Mailbox.Username == "" {
		res.addWarn("mailbox.username is empty; scans will fail until it is set.")
	}
	if strings.TrimSpace(out.Mailbox.Inbox) == "" {
		res.addErr("mailbox.inbox is required")
	}
	if len(out.Mailbox.SubjectTerms)+len(out.Mailbox.TextTerms) == 0 {
		res.addWarn("mailbox.subject_terms and mailbox.text_terms are empty; scans will find nothing.")
	}
	if out.Mailbox.RequestsPerSecond < 0 {
		res.addErr("mailbox.requests_per_second must be >= 0")
	} else if out.Mailbox.RequestsPerSecond > 50 {
		res.addWarn("mailbox.requests_per_second is high (%.0f) and may trip provider throttling.", out.Mailbox.RequestsPerSecond)
	}

	// ---- extraction / confidence ----

	if out.Extraction.BodyExcerpt <= 0 {
		res.addErr("extraction.body_excerpt must be > 0")
	}
	if out.Extraction.PositionExcerpt <= 0 {
		res.addErr("extraction.position_excerpt must be > 0")
	}
	if len(out.Extraction.PositionKeywords) == 0 {
		res.addWarn("extraction.position_keywords is empty; no position will ever be extracted.")
	}
	if out.Confidence.Medium <= 0 || out.Confidence.High <= out.Confidence.Medium {
		res.addErr("confidence thresholds must satisfy 0 < medium < high (got medium=%.2f high=%.2f)",
			out.Confidence.Medium, out.Confidence.High)
	}
	if out.Confidence.High > 1.1 {
		res.addWarn("confidence.high is %.2f; no message can score above 1.10.", out.Confidence.High)
	}

	// ---- escalation ----

	if out.Escalation.Enabled {
		if strings.TrimSpace(out.Escalation.Host) == "" {
			res.addErr("escalation.host is required when escalation.enabled=true")
		}
		if strings.TrimSpace(out.Escalation.Model) == "" {
			res.addErr("escalation.model is required when escalation.enabled=true")
		}
	}
	if out.Escalation.TimeoutSeconds <= 0 {
		res.addErr("escalation.timeout_seconds must be > 0")
	}
	if out.Escalation.MaxRetries < 0 {
		res.addErr("escalation.max_retries must be >= 0")
	}
	if out.Escalation.RetryDelaySeconds < 0 {
		res.addErr("escalation.retry_delay_seconds must be >= 0")
	}

	// ---- deletion ----

	if out.Deletion.Enabled {
		if strings.TrimSpace(out.Mailbox.Trash) == "" {
			res.addErr("mailbox.trash is required when deletion.enabled=true")
		}
		if len(out.Deletion.SafetyKeywords) == 0 {
			res.addWarn("deletion.safety_keywords is empty; only status protections will keep mail.")
		}
		if !out.Deletion.DeleteApplied && !out.Deletion.DeleteRejected {
			res.addWarn("deletion is enabled but both delete_applied and delete_rejected are false; nothing will be deleted.")
		}
	}

	// ---- store / scan / logging ----

	if out.Store.BackupKeep < 0 {
		res.addErr("store.backup_keep must be >= 0")
	}
	if out.Scan.Workers <= 0 {
		res.addErr("scan.workers must be > 0")
	} else if out.Scan.Workers > 32 {
		res.addWarn("scan.workers is %d; analysis is CPU-bound and gains little past the core count.", out.Scan.Workers)
	}
	if out.Scan.PreviewHours <= 0 {
		res.addErr("scan.preview_hours must be > 0")
	}
	if out.Scan.SinceDays < 0 {
		res.addErr("scan.since_days must be >= 0")
	}
	if out.Scan.MaxMessages < 0 {
		res.addErr("scan.max_messages must be >= 0")
	}
	switch out.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		res.addErr("logging.level must be one of debug, info, warn, error (got %q)", out.Logging.Level)
	}
	switch out.Logging.Format {
	case "json", "console":
	default:
		res.addErr("logging.format must be json or console (got %q)", out.Logging.Format)
	}

	return out, res
}
