package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"politefetch/internal/ioformats"
	"politefetch/internal/models"
	"politefetch/internal/scrape"
	"politefetch/pkg/logger"
)

func newBatchCmd() *cobra.Command {
	var (
		in        string
		outDir    string
		reportOut string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the pipeline once per URL in a CSV or NDJSON file, one after another",
		Long: `Run the pipeline once per URL in a CSV or NDJSON file, one after another.

Each body is written to its own file under --output-dir, named after the URL.
--output-dir replaces the single-file --output flag, which batch rejects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return fmt.Errorf("%w: missing --input", errUsage)
			}
			if cmd.Flags().Changed("output") {
				return fmt.Errorf("%w: --output does not apply to batch, use --output-dir", errUsage)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			urls, err := ioformats.ReadURLs(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			if reportOut == "" {
				reportOut = filepath.Join(outDir, "report.ndjson")
			}
			f, err := os.Create(reportOut)
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			defer f.Close()

			reports := runBatch(context.Background(), scrape.New(cfg, logger.New()), urls, outDir)
			return ioformats.WriteNDJSON(f, reports)
		},
	}
	cmd.Flags().StringVar(&in, "input", "", "input file (csv with 'url' column or ndjson)")
	cmd.Flags().StringVar(&outDir, "output-dir", ".", "directory the fetched bodies are written to")
	cmd.Flags().StringVar(&reportOut, "report", "", "NDJSON report file (default <output-dir>/report.ndjson)")
	return cmd
}

// runBatch runs each URL through its own complete pipeline pass, in order.
func runBatch(ctx context.Context, p *scrape.Pipeline, urls []string, outDir string) []models.Report {
	reports := make([]models.Report, 0, len(urls))
	for _, u := range urls {
		dest := filepath.Join(outDir, ioformats.FileNameForURL(u))
		reports = append(reports, p.RunTo(ctx, u, dest))
	}
	return reports
}
