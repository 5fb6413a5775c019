package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"golang-bank-import-service/cmd/bankimport/config"
	"golang-bank-import-service/internal/importer"
	"golang-bank-import-service/internal/sheets"
	"golang-bank-import-service/internal/sourcestore"
	"golang-bank-import-service/pkg/logger"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the import command
var (
	inputPath           string
	conversionsFile     string
	conversionsOverride string
	spreadsheetKey      string
	credentialsFile     string
	cutoffDate          string
	schedule            string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bank CSV exports into the ledger spreadsheet",
	Long: `Import walks the input directory for bank CSV exports, converts each
row to a canonical transaction record, and appends the new, non-duplicate
records to per-year ledger worksheets.

The input tree must be laid out as <input>/<file format>/<account>/<file>.csv.
Files already listed in the 'Processed' worksheet are skipped, as are rows
whose id already exists in their target ledger, so the command is safe to
re-run at any time.

Examples:
  # Single import pass
  bankimport import --input ./downloads --conversions conversions.yml

  # Ignore transactions before the start of the 2024 accounting year
  bankimport import --input ./downloads --conversions conversions.yml \
    --cutoff-date 2024-04-01

  # Keep running, importing on a cron schedule
  bankimport import --input ./downloads --conversions conversions.yml \
    --schedule "@every 6h"

The spreadsheet key and credentials can also come from the SPREADSHEET_KEY
and GOOGLE_APPLICATION_CREDENTIALS environment variables, the input path
from INPUT_PATH, and the cutoff date from CUT_OFF_DATE.`,

	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&inputPath, "input", "i", "", "root directory of bank CSV exports")
	importCmd.Flags().StringVarP(&conversionsFile, "conversions", "c", "", "conversion configuration file (required)")
	importCmd.Flags().StringVar(&conversionsOverride, "conversions-override", "", "optional override configuration file")
	importCmd.Flags().StringVarP(&spreadsheetKey, "spreadsheet", "s", "", "target spreadsheet key")
	importCmd.Flags().StringVar(&credentialsFile, "credentials", "", "Google service account key file")
	importCmd.Flags().StringVar(&cutoffDate, "cutoff-date", "", "ignore transactions before this date (YYYY-MM-DD)")
	importCmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule for repeated imports (single run if empty)")

	importCmd.MarkFlagRequired("conversions")

	viper.BindPFlag("input", importCmd.Flags().Lookup("input"))
	viper.BindPFlag("conversions", importCmd.Flags().Lookup("conversions"))
	viper.BindPFlag("conversions-override", importCmd.Flags().Lookup("conversions-override"))
	viper.BindPFlag("spreadsheet", importCmd.Flags().Lookup("spreadsheet"))
	viper.BindPFlag("credentials", importCmd.Flags().Lookup("credentials"))
	viper.BindPFlag("cutoff-date", importCmd.Flags().Lookup("cutoff-date"))
	viper.BindPFlag("schedule", importCmd.Flags().Lookup("schedule"))
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	// Values from viper allow overrides from a config file.
	inputPath = viper.GetString("input")
	conversionsFile = viper.GetString("conversions")
	conversionsOverride = viper.GetString("conversions-override")
	spreadsheetKey = viper.GetString("spreadsheet")
	credentialsFile = viper.GetString("credentials")
	cutoffDate = viper.GetString("cutoff-date")
	schedule = viper.GetString("schedule")

	// The environment fills whatever the flags left empty.
	runtime, err := config.ReadRuntime()
	if err != nil {
		return err
	}
	if inputPath == "" {
		inputPath = runtime.InputPath
	}
	if spreadsheetKey == "" {
		spreadsheetKey = runtime.SpreadsheetKey
	}
	if credentialsFile == "" {
		credentialsFile = runtime.CredentialsFile
	}
	if cutoffDate == "" {
		cutoffDate = runtime.CutOffDate
	}

	if inputPath == "" {
		return fmt.Errorf("input directory is required (--input or INPUT_PATH)")
	}
	if conversionsFile == "" {
		return fmt.Errorf("conversions file is required")
	}
	if spreadsheetKey == "" {
		return fmt.Errorf("spreadsheet key is required (--spreadsheet or SPREADSHEET_KEY)")
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("cannot access input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", inputPath)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)

	handler := NewCLIErrorHandler()

	if schedule == "" {
		if err := runOnce(); err != nil {
			os.Exit(handler.HandleError(err))
		}
		return nil
	}

	// Scheduled mode: run immediately, then on the cron schedule. A failed
	// pass is reported and the next scheduled pass retried; re-runs are
	// idempotent.
	pass := func() {
		if err := runOnce(); err != nil {
			handler.HandleError(err)
		}
	}

	pass()

	c := cron.New()
	if err := c.AddFunc(schedule, pass); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	c.Start()

	select {}
}

// runOnce builds the pipeline and executes one import pass.
func runOnce() error {
	ctx := context.Background()

	registry, partitioner, err := config.LoadConversions(conversionsFile, conversionsOverride)
	if err != nil {
		return err
	}

	importerConfig, err := config.ParseCutoff(cutoffDate)
	if err != nil {
		return err
	}

	source, err := sourcestore.New(nil, inputPath)
	if err != nil {
		return err
	}

	client, err := sheets.NewClient(ctx, spreadsheetKey, credentialsFile)
	if err != nil {
		return err
	}

	run, err := importer.New(importerConfig, registry, partitioner, source, client, client)
	if err != nil {
		return err
	}

	summary, err := run.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

// printSummary reports the pass outcome so callers can detect
// under-processing.
func printSummary(summary *importer.Summary) {
	fmt.Printf("Processed %d new files, %d new transactions\n",
		summary.NewFiles, summary.TotalNewRows())

	labels := make([]string, 0, len(summary.NewRowsByLedger))
	for label := range summary.NewRowsByLedger {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("  %s: %d new transactions\n", label, summary.NewRowsByLedger[label])
	}

	if summary.SkippedRows > 0 {
		fmt.Printf("  %d rows skipped due to parse errors\n", summary.SkippedRows)
	}
	if summary.DuplicateRows > 0 {
		fmt.Printf("  %d duplicate rows filtered\n", summary.DuplicateRows)
	}
}
