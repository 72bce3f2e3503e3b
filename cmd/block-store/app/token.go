package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lumina-study/block-store/internal/credentials"
	"github.com/lumina-study/block-store/internal/lumina"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage provider access tokens in the system keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider>",
		Short: "Store a provider token, read from STDIN",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored provider token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := lumina.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if err := credentials.Delete(provider); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s token\n", provider.DisplayName())
			return err
		},
	})

	return cmd
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	provider, err := lumina.ParseProvider(args[0])
	if err != nil {
		return err
	}

	var token string
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s token: ", provider.DisplayName())
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = string(raw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := credentials.Store(provider, token); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s token\n", provider.DisplayName())
	return err
}
