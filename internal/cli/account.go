package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geodex/geodex/internal/account"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage archive credentials",
	Long: `Credentials are stored in an encrypted database next to the catalog,
keyed by provider name. Providers that require authentication look
them up before their first request.`,
}

var accountSetCmd = &cobra.Command{
	Use:   "set <provider> <user>",
	Short: "Store credentials for a provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		secret := os.Getenv("GEODEX_SECRET")
		if secret == "" {
			fmt.Fprintf(os.Stderr, "Secret for %s@%s: ", args[1], args[0])
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read secret: %w", err)
			}
			secret = strings.TrimSpace(line)
		}
		if secret == "" {
			return fmt.Errorf("empty secret")
		}

		if err := e.Accounts.Set(args[0], account.Identity{User: args[1], Secret: secret}); err != nil {
			return err
		}
		fmt.Printf("Stored credentials for %s\n", args[0])
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show <provider>",
	Short: "Show the stored user for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.Accounts.Get(args[0])
		if errors.Is(err, account.ErrNotFound) {
			fmt.Printf("No credentials stored for %s\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s: user %s\n", args[0], id.User)
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove the stored credentials for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Accounts.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed credentials for %s\n", args[0])
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountSetCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountDeleteCmd)
}
