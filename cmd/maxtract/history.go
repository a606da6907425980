package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/maxtract/internal/config"
	"github.com/nao1215/maxtract/internal/database"
	"github.com/nao1215/maxtract/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [root-url]",
		Short: "List crawls stored with --save",
		Long: `History lists the crawls stored in the run history, newest first.

Give a root address to list only the crawls that started there. Use the
run ID with 'maxtract show' to render a stored crawl again.

Examples:
  # List every stored crawl
  maxtract history

  # List the crawls of one site
  maxtract history https://example.com/

  # Remove a stored crawl
  maxtract history --delete 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("delete", 0, "Delete the run with this ID")
	addDBDirFlag(cmd)

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := readDBDirFlag(cmd, cfg); err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if deleteID != 0 {
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %d\n", deleteID)
		return nil
	}

	var root string
	if len(args) > 0 {
		addr, err := model.ParseAddress(args[0])
		if err != nil {
			return err
		}
		root = addr.String()
	}
	runs, err := db.ListRuns(ctx, root)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

// printRuns writes runs as an aligned table.
func printRuns(out io.Writer, runs []database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored crawls found.")
		fmt.Fprintln(out, "\nUse 'maxtract crawl --save <root-url> ...' to store a crawl.")
		return
	}

	fmt.Fprintf(out, "Stored crawls (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %6s  %7s  %5s  %-12s  %s\n",
		"ID", "Date", "Pages", "Matches", "Depth", "Digest", "Root / Pattern")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %6d  %7d  %5s  %-12s  %s (%s)\n",
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.PageCount,
			r.MatchCount,
			formatDepth(r.MaxDepth),
			shortDigest(r.Digest),
			r.Root,
			r.Pattern,
		)
	}

	fmt.Fprintln(out, "\nUse 'maxtract show <id>' to render a stored crawl.")
}

func formatDepth(depth int) string {
	if depth < 0 {
		return "-"
	}
	return strconv.Itoa(depth)
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
