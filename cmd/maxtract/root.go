package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/maxtract/internal/log"
)

// NewRootCmd creates the root command for maxtract.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maxtract",
		Short: "Crawl a website and extract phone numbers, e-mail addresses or regex matches",
		Long: `maxtract crawls a website breadth-first from a root address, follows the
hyperlinks it finds and extracts every match of the selected patterns from
each page. The result is a graph of pages, their matches and their links,
rendered as text, JSON or Markdown.

Crawls can be stored in a local history and rendered again later.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records to stderr as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// boolFlag looks a flag up on the command and then on the root's persistent
// flags, so that commands run on their own in tests behave like children.
func boolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the stderr logger. Sensitive values such as cookies
// and URL passwords are masked before they are written.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := boolFlag(cmd, "verbose")
	if boolFlag(cmd, "log-json") {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
