package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	blockstore "github.com/lumina-study/block-store/internal/app"
	"github.com/lumina-study/block-store/internal/credentials"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/store"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <provider> <organization> <repository>",
		Short: "Fetch a repository's lumina document and print its blocks",
		Long: `Fetch resolves the default branch of a repository, reads its lumina document
and the latest commit touching it, and prints the result without starting a server.

The token is taken from --token, then BLOCK_STORE_<PROVIDER>_TOKEN, then the
system keyring (see "block-store token set").`,
		Args: cobra.ExactArgs(3),
		RunE: runFetch,
	}
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().String("token", "", "Access token for private repositories")
	cmd.Flags().StringP("output", "o", "", "Output format (table|json); table on a terminal, json otherwise")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	provider, err := lumina.ParseProvider(args[0])
	if err != nil {
		return err
	}
	triple := lumina.Triple{Provider: provider, Organization: args[1], Repository: args[2]}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return fmt.Errorf("failed to get token flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if output == "" {
		output = defaultOutput(cmd.OutOrStdout())
	}
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unsupported output format %q", output)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	fetcher, err := blockstore.NewFetcherFactory(cfg).CreateFetcher(provider)
	if err != nil {
		return err
	}
	result, err := fetcher.Fetch(cmd.Context(), triple.Organization, triple.Repository, credentials.Resolve(provider, token))
	if err != nil {
		return err
	}

	src := store.NewSource(triple, result.CommitSHA, result.Document, time.Now())
	if output == outputJSON {
		return writeSourceJSON(cmd.OutOrStdout(), src)
	}
	return writeSourceTable(cmd.OutOrStdout(), src, result.Filename)
}

// defaultOutput picks the table format for terminals
func defaultOutput(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return outputTable
	}
	return outputJSON
}

func writeSourceJSON(w io.Writer, src *lumina.Source) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(src); err != nil {
		return fmt.Errorf("failed to encode source: %w", err)
	}
	return nil
}

func writeSourceTable(w io.Writer, src *lumina.Source, filename string) error {
	if _, err := fmt.Fprintf(w, "Source:  %s\nFile:    %s\nCommit:  %s\nBlocks:  %d\n\n",
		sourcekey.Encode(src.Triple), filename, src.CommitSHA, len(src.Blocks())); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Title (he)", "Prerequisites", "Parents")
	for _, b := range src.Blocks() {
		if err := table.Append(
			b.ID,
			b.Title.EnText,
			b.Title.HeText,
			strings.Join(b.Prerequisites, ", "),
			strings.Join(b.Parents, ", "),
		); err != nil {
			return fmt.Errorf("failed to render block %s: %w", b.ID, err)
		}
	}
	return table.Render()
}
