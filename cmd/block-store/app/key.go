package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sourcekey"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Encode and decode source keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode <provider> <organization> <repository>",
		Short: "Print the key of a repository",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := lumina.ParseProvider(args[0])
			if err != nil {
				return err
			}
			key := sourcekey.Encode(lumina.Triple{
				Provider:     provider,
				Organization: args[1],
				Repository:   args[2],
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode <key>",
		Short: "Print the provider, organization and repository of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			triple, err := sourcekey.Decode(args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(triple, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	})

	return cmd
}
