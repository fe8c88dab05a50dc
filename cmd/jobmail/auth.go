package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jobmail-engine/internal/secrets"
)

var authPasswordStdin bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the IMAP password in the OS keychain",
	Long: `Manage the IMAP password in the OS keychain. For Gmail use an app password.

The password can also come from the ` + secrets.PasswordEnv + ` environment
variable or a .env file next to the config.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the IMAP password for the configured account",
	Args:  cobra.NoArgs,
	RunE:  runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored IMAP password",
	Args:  cobra.NoArgs,
	RunE:  runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report where the IMAP password will be read from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authSetCmd.Flags().BoolVar(&authPasswordStdin, "password-stdin", false, "read the password from stdin")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthSet(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	if strings.TrimSpace(a.cfg.Mailbox.Username) == "" {
		return errors.New("set mailbox.username in " + a.path + " first")
	}

	pw, err := readPassword(cmd, a.cfg.Mailbox.Username)
	if err != nil {
		return err
	}
	acct := secrets.IMAPKeyringAccount(a.cfg)
	if err := secrets.SetIMAPPassword(acct, pw); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Password stored for", a.cfg.Mailbox.Username)
	return nil
}

func readPassword(cmd *cobra.Command, user string) (string, error) {
	fd := int(os.Stdin.Fd())
	if authPasswordStdin || !term.IsTerminal(fd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "IMAP password for %s: ", user)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func runAuthDelete(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := secrets.DeleteIMAPPassword(secrets.IMAPKeyringAccount(a.cfg)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Password removed.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	_, src, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(a.cfg))
	if errors.Is(err, secrets.ErrNoPassword) {
		fmt.Fprintln(out, "No password found.", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Password for %s found in %s.\n", a.cfg.Mailbox.Username, src)
	return nil
}
