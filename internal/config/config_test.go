package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	_, res := NormalizeAndValidate(Default())
	assert.True(t, res.OK(), res.Errors)
	assert.Contains(t, res.Warnings, "mailbox.username is empty; scans will fail until it is set.")
}

func TestLoadOverlaysDefaultsAndExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOBMAIL_TEST_USER", "me@example.com")

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  data_dir: `+dir+`
mailbox:
  username: ${JOBMAIL_TEST_USER}
  trash: ${JOBMAIL_TEST_UNSET}
deletion:
  delete_applied: false
  safety_keywords: [visa, relocation]
scan:
  workers: 8
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", cfg.Mailbox.Username)
	assert.Equal(t, "${JOBMAIL_TEST_UNSET}", cfg.Mailbox.Trash)
	assert.False(t, cfg.Deletion.DeleteApplied)
	assert.True(t, cfg.Deletion.DeleteRejected, "untouched keys keep their defaults")
	assert.Equal(t, []string{"visa", "relocation"}, cfg.Deletion.SafetyKeywords)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 993, cfg.Mailbox.IMAPPort)
	assert.Equal(t, "imap.gmail.com:993", cfg.IMAPAddr())
	assert.Equal(t, filepath.Join(dir, "jobmail.db"), cfg.StorePath())
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.BackupDir())
	assert.Equal(t, filepath.Join(dir, "deletions.log"), cfg.AuditLogPath())
}

func TestLoadReadsDotenvBesideConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JOBMAIL_TEST_DOTENV_MODEL=qwen2.5:7b\n"), 0o600))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("escalation:\n  model: ${JOBMAIL_TEST_DOTENV_MODEL}\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("JOBMAIL_TEST_DOTENV_MODEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:7b", cfg.Escalation.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Deletion.SafetyKeywords = []string{" Visa ", "visa", "", "equity"}
	cfg.Confidence.High = 0.3
	cfg.Scan.Workers = 0
	cfg.Logging.Level = "LOUD"
	cfg.Deletion.DeleteApplied = false
	cfg.Deletion.DeleteRejected = false

	out, res := NormalizeAndValidate(cfg)
	assert.Equal(t, []string{"Visa", "equity"}, out.Deletion.SafetyKeywords)
	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors, "scan.workers must be > 0")
	assert.Contains(t, res.Warnings,
		"deletion is enabled but both delete_applied and delete_rejected are false; nothing will be deleted.")
}

func TestEscalationRequiresModelWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Escalation.Enabled = true
	cfg.Escalation.Model = " "
	_, res := NormalizeAndValidate(cfg)
	assert.Contains(t, res.Errors, "escalation.model is required when escalation.enabled=true")
}

func TestSaveAtomicAndBootstrap(t *testing.T) {
	dir := t.TempDir()

	path, created, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.App.DataDir)

	cfg.Scan.Workers = 2
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Scan.Workers)

	_, created, err = EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.False(t, created)

	cfg.Scan.Workers = -1
	err = SaveAtomic(path, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.workers must be > 0")
}
