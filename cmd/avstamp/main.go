// Command avstamp is the producer half of the pipeline: it reads structured
// prompt records, stamps each one with a correlation tag, and writes the
// partitioned prompt files that a later ingest session correlates downloads
// against.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slothsintel/AutoVisuals/internal/application/stamp"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/catalog"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/storage"
	"github.com/slothsintel/AutoVisuals/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "avstamp",
	Short: "Stamp prompt records with correlation tags and partition them",
	Long: `avstamp reads a JSON list of prompt records, normalizes each prompt to
the canonical /imagine prompt: form, attaches a unique correlation tag,
and writes meta.json, meta.csv, and prompt.txt into the configured
prompt store under <date>/<category>/.

Re-running against an existing partition merges the new records in and
never reissues a correlation id the partition already carries.

Examples:
  avstamp --input records.json
  avstamp --input records.json --date 2024-06-01
  cat records.json | avstamp`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		date, _ := cmd.Flags().GetString("date")
		return run(cmd.Context(), input, date)
	},
}

func init() {
	rootCmd.Flags().StringP("input", "i", "-", "Records file to read, - for stdin")
	rootCmd.Flags().StringP("date", "d", "", "Partition date as YYYY-MM-DD (default: today, UTC)")
}

func run(ctx context.Context, input, date string) error {
	cfg, err := config.LoadStamp()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	provider := observability.NewProvider(&observability.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		LogLevel:            cfg.LogLevel,
		MetricsAdapter:      observability.MetricsAdapterNoop,
		CloudWatchNamespace: cfg.Metrics.CloudWatchNamespace,
		CloudWatchRegion:    cfg.Metrics.CloudWatchRegion,
	})
	defer provider.Close()

	records, err := readRecords(input)
	if err != nil {
		return err
	}

	prompts, err := storage.New(ctx, cfg.Storage, cfg.Ingest.PromptRoot,
		provider.Logger("storage"), provider.Metrics("storage"))
	if err != nil {
		return fmt.Errorf("prompt store: %w", err)
	}

	stamper := stamp.NewStamper(prompts, provider.Logger("stamper"), provider.Metrics("stamper"))
	result, err := stamper.Run(ctx, date, records)
	if err != nil {
		return err
	}

	provider.Logger("main").Info(ctx, "stamping finished", observability.Fields{
		"date":       result.Date,
		"records":    result.Stamped,
		"categories": result.Categories,
	})
	return nil
}

// readRecords loads the input document, from stdin when the path is "-".
func readRecords(input string) ([]catalog.Record, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	records, err := catalog.DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return records, nil
}
