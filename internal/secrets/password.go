package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobmail-engine/internal/config"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "jobmail"
	PasswordEnv    = "JOBMAIL_IMAP_PASSWORD"
)

var ErrNoPassword = errors.New("IMAP password not found (run `jobmail auth set` or set " + PasswordEnv + ")")

// Source says where a password was found.
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
)

// GetIMAPPassword prefers the keychain and falls back to the environment.
func GetIMAPPassword(keyringAccount string) (string, Source, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, SourceKeyring, nil
		}
	}
	if pw := os.Getenv(PasswordEnv); strings.TrimSpace(pw) != "" {
		return pw, SourceEnv, nil
	}
	return "", "", ErrNoPassword
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

// DeleteIMAPPassword removes the keychain entry. A missing entry is not an error.
func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if err := keyring.Delete(KeyringService, keyringAccount); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"jobmail:imap:%s@%s",
		strings.ToLower(strings.TrimSpace(cfg.Mailbox.Username)),
		strings.ToLower(strings.TrimSpace(cfg.Mailbox.IMAPHost)),
	)
}
