package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobmail-engine/internal/config"
)

func TestPasswordRoundTrip(t *testing.T) {
	keyring.MockInit()
	t.Setenv(PasswordEnv, "")

	cfg := config.Default()
	cfg.Mailbox.Username = " Me@Example.com "
	acct := IMAPKeyringAccount(cfg)
	assert.Equal(t, "jobmail:imap:me@example.com@imap.gmail.com", acct)

	_, _, err := GetIMAPPassword(acct)
	assert.ErrorIs(t, err, ErrNoPassword)

	require.NoError(t, SetIMAPPassword(acct, "app-password"))
	pw, src, err := GetIMAPPassword(acct)
	require.NoError(t, err)
	assert.Equal(t, "app-password", pw)
	assert.Equal(t, SourceKeyring, src)

	require.NoError(t, DeleteIMAPPassword(acct))
	require.NoError(t, DeleteIMAPPassword(acct), "deleting twice is fine")
}

func TestPasswordEnvFallback(t *testing.T) {
	keyring.MockInit()
	t.Setenv(PasswordEnv, "from-env")

	pw, src, err := GetIMAPPassword("jobmail:imap:nobody@host")
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
	assert.Equal(t, SourceEnv, src)
}

func TestSetRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetIMAPPassword("", "x"))
	assert.Error(t, SetIMAPPassword("acct", "  "))
	assert.Error(t, DeleteIMAPPassword(""))
}
