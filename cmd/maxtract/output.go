package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/maxtract/internal/config"
	"github.com/nao1215/maxtract/internal/model"
	"github.com/nao1215/maxtract/internal/report"
)

// addOutputFlags registers the output format flags shared by crawl and show.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("full", "f", false, "Print every address followed by its matches (default)")
	cmd.Flags().BoolP("data-only", "o", false, "Print only the matches")
	cmd.Flags().BoolP("json", "j", false, "Print the graph as JSON")
	cmd.Flags().BoolP("pretty-json", "J", false, "Print the graph as indented JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Print a Markdown report")
	cmd.Flags().String("output-file", "",
		"Write the output to a file instead of stdout (creates directories if needed)")
}

func readOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if cfg.Full, err = flags.GetBool("full"); err != nil {
		return err
	}
	if cfg.DataOnly, err = flags.GetBool("data-only"); err != nil {
		return err
	}
	if cfg.JSON, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.PrettyJSON, err = flags.GetBool("pretty-json"); err != nil {
		return err
	}
	if cfg.Markdown, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	cfg.ReportFile, err = flags.GetString("output-file")
	return err
}

func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")
}

func readDBDirFlag(cmd *cobra.Command, cfg *config.Config) error {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.DBDir = dir
	}
	return nil
}

// outputFormat maps the output flags to a report format. Conflicting flags
// have already been rejected by ValidateOutput.
func outputFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.DataOnly:
		return report.FormatDataOnly
	case cfg.JSON:
		return report.FormatJSON
	case cfg.PrettyJSON:
		return report.FormatPrettyJSON
	case cfg.Markdown:
		return report.FormatMarkdown
	default:
		return report.FormatFull
	}
}

// outputReport renders graph to path, or to stdout when path is empty.
func outputReport(stdout io.Writer, path string, format report.Format, meta report.Meta, graph *model.Graph) error {
	output := stdout
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Extracted contact data is personal information; keep it owner-only.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writer, err := report.NewWriter(format, output, meta)
	if err != nil {
		return err
	}
	if _, err := writer.Write(graph); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
