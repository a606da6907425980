package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/maxtract/internal/config"
	"github.com/nao1215/maxtract/internal/database"
	"github.com/nao1215/maxtract/internal/model"
	"github.com/nao1215/maxtract/internal/report"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Render a stored crawl",
		Long: `Show loads a crawl from the run history and renders it with the same
output formats as 'maxtract crawl'. The stored graph is checked against the
digest recorded when it was saved.

Examples:
  # Print a stored crawl as text
  maxtract show 3

  # Export a stored crawl as a Markdown report
  maxtract show 3 -m --output-file report.md`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	addOutputFlags(cmd)
	addDBDirFlag(cmd)

	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid run ID %q: must be a positive integer", args[0])
	}

	cfg := config.NewConfig()
	if err := readOutputFlags(cmd, cfg); err != nil {
		return err
	}
	if err := readDBDirFlag(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	run, graph, err := db.LoadGraph(cmd.Context(), id)
	if err != nil {
		return err
	}

	meta := report.Meta{
		Root:      model.Address(run.Root),
		Pattern:   run.Pattern,
		MaxDepth:  run.MaxDepth,
		CrawledAt: run.Timestamp,
	}
	return outputReport(cmd.OutOrStdout(), cfg.ReportFile, outputFormat(cfg), meta, graph)
}
