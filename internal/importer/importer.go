// Package importer drives the import pass: it iterates source files, applies
// the conversion registry, validates and deduplicates the resulting records,
// and buckets accepted rows by target ledger.
//
// The pass is single-threaded and batch oriented. All mutable state (the
// per-ledger id sets and pending batches, and the processed-file list) is
// owned by one Importer value for the duration of one run; writes to the
// external sink happen at most once per ledger per run. Re-running the pass
// against the same inputs is a no-op: processed files are skipped and
// duplicate ids are filtered even if a file were re-processed.
package importer

import (
	"context"
	"sort"

	"golang-bank-import-service/internal/convert"
	"golang-bank-import-service/internal/ledger"
	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"
	"golang-bank-import-service/pkg/logger"
)

// Config holds the per-run import settings.
type Config struct {
	// CutoffDate is the inclusive lower bound on transaction dates, as a
	// spreadsheet serial. Rows dated before it are rejected. Zero means no
	// cutoff.
	CutoffDate int
}

// DefaultConfig returns a configuration with no cutoff.
func DefaultConfig() *Config {
	return &Config{CutoffDate: 0}
}

// Summary reports what one import pass accepted.
type Summary struct {
	// NewFiles is the number of source files processed for the first time.
	NewFiles int
	// NewRowsByLedger maps each touched ledger label to the number of newly
	// accepted records.
	NewRowsByLedger map[string]int
	// SkippedRows counts rows dropped because a field failed to parse.
	SkippedRows int
	// RejectedRows counts rows excluded by validation: zero-amount rows and
	// rows before the cutoff date.
	RejectedRows int
	// DuplicateRows counts rows whose id already existed in their ledger.
	DuplicateRows int
}

// TotalNewRows returns the number of records accepted across all ledgers.
func (s *Summary) TotalNewRows() int {
	total := 0
	for _, count := range s.NewRowsByLedger {
		total += count
	}
	return total
}

// bucket is the per-ledger aggregation state: the known id set and the
// pending batch of accepted records.
type bucket struct {
	ids     map[string]struct{}
	pending []*models.Record
}

// Importer owns one import pass over the source tree.
type Importer struct {
	config      *Config
	registry    *convert.Registry
	partitioner *ledger.Partitioner
	source      SourceStore
	ledgers     LedgerStore
	processed   ProcessedStore
	logger      logger.Logger

	// buckets maps ledger labels to their aggregation state. A ledger's id
	// set is fetched lazily, before the first row for that ledger is
	// accepted, and extended in memory as rows are accepted so duplicates
	// within the same run are caught too.
	buckets map[string]*bucket
}

// New creates an Importer. All collaborators are required.
func New(config *Config, registry *convert.Registry, partitioner *ledger.Partitioner,
	source SourceStore, ledgers LedgerStore, processed ProcessedStore) (*Importer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if registry == nil || partitioner == nil {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"importer needs a conversion registry and a partitioner", nil)
	}
	if source == nil || ledgers == nil || processed == nil {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"importer needs source, ledger and processed stores", nil)
	}

	return &Importer{
		config:      config,
		registry:    registry,
		partitioner: partitioner,
		source:      source,
		ledgers:     ledgers,
		processed:   processed,
		logger:      logger.GetGlobalLogger().WithComponent("importer"),
		buckets:     make(map[string]*bucket),
	}, nil
}

// Run executes one import pass and returns its summary. Configuration and
// store failures abort the run; row-level parse failures are logged and the
// affected row skipped.
func (i *Importer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{NewRowsByLedger: make(map[string]int)}

	processedSet, err := i.processed.Existing()
	if err != nil {
		return nil, wrapStoreError(err, "processed", "reading processed file list")
	}

	files, err := i.source.ListFiles()
	if err != nil {
		return nil, wrapStoreError(err, "source", "listing source files")
	}

	var newFiles []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, imperrors.InternalError("import pass", err)
		}

		if _, done := processedSet[file.Path]; done {
			i.logger.WithField("file", file.Path).Debug("Already processed, skipping")
			continue
		}

		i.logger.WithFields(logger.Fields{
			"file":    file.Path,
			"format":  file.Format,
			"account": file.Account,
		}).Info("Processing file")

		if err := i.processFile(file, summary); err != nil {
			return nil, err
		}

		// A file counts as processed even when every row was rejected.
		newFiles = append(newFiles, file.Path)
	}
	summary.NewFiles = len(newFiles)

	if err := i.flush(summary); err != nil {
		return nil, err
	}

	if len(newFiles) > 0 {
		if err := i.processed.Append(newFiles); err != nil {
			return nil, wrapStoreError(err, "processed", "recording processed files")
		}
	}

	i.logger.WithFields(logger.Fields{
		"new_files":      summary.NewFiles,
		"new_rows":       summary.TotalNewRows(),
		"skipped_rows":   summary.SkippedRows,
		"rejected_rows":  summary.RejectedRows,
		"duplicate_rows": summary.DuplicateRows,
	}).Info("Import pass complete")

	return summary, nil
}

// processFile converts and aggregates every data row of one source file.
func (i *Importer) processFile(file SourceFile, summary *Summary) error {
	converters, err := i.registry.RowConverters(file.Format, file.Account)
	if err != nil {
		return err
	}

	rows, err := i.source.Open(file.Path)
	if err != nil {
		return wrapStoreError(err, "source", "reading "+file.Path)
	}

	// The first row is the bank's column header.
	for line, row := range rows {
		if line == 0 {
			continue
		}

		record, err := i.convertRow(converters, row)
		if err != nil {
			impErr, ok := imperrors.AsImportError(err)
			if !ok || !impErr.Recoverable() {
				return err
			}
			i.logger.WithError(err).WithFields(logger.Fields{
				"file": file.Path,
				"line": line + 1,
			}).Warn("Skipping row that failed to convert")
			summary.SkippedRows++
			continue
		}

		if err := i.aggregate(record, summary); err != nil {
			return err
		}
	}

	return nil
}

// convertRow applies the converter list to one raw row.
func (i *Importer) convertRow(converters []convert.Converter, row []string) (*models.Record, error) {
	record := &models.Record{}
	for _, converter := range converters {
		if err := converter.Apply(row, record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// aggregate validates a record and, if accepted, adds it to its ledger's
// pending batch. Rejections and duplicates are normal outcomes, not errors;
// only a store failure while loading a ledger's id set is returned.
func (i *Importer) aggregate(record *models.Record, summary *Summary) error {
	if record.Validate() != nil || record.Date < i.config.CutoffDate {
		summary.RejectedRows++
		return nil
	}

	label := i.partitioner.Label(record.Date)
	b, err := i.ledgerBucket(label)
	if err != nil {
		return err
	}

	if _, dup := b.ids[record.ID]; dup {
		summary.DuplicateRows++
		return nil
	}

	b.ids[record.ID] = struct{}{}
	b.pending = append(b.pending, record)
	summary.NewRowsByLedger[label]++
	return nil
}

// ledgerBucket returns the aggregation state for a ledger, fetching its
// existing id set on first touch. The id set must be populated before any
// row for that ledger is accepted.
func (i *Importer) ledgerBucket(label string) (*bucket, error) {
	if b, ok := i.buckets[label]; ok {
		return b, nil
	}

	ids, err := i.ledgers.ExistingIDs(label)
	if err != nil {
		return nil, wrapStoreError(err, "ledger", "loading existing ids for "+label)
	}
	if ids == nil {
		ids = make(map[string]struct{})
	}

	b := &bucket{ids: ids}
	i.buckets[label] = b
	return b, nil
}

// flush appends each ledger's pending batch to the sink and re-sorts the
// ledger by date. Ledgers are flushed in label order for stable behavior.
func (i *Importer) flush(summary *Summary) error {
	labels := make([]string, 0, len(i.buckets))
	for label, b := range i.buckets {
		if len(b.pending) > 0 {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	for _, label := range labels {
		b := i.buckets[label]
		i.logger.WithFields(logger.Fields{
			"ledger":   label,
			"new_rows": len(b.pending),
		}).Info("Appending new transactions")

		if err := i.ledgers.AppendRows(label, b.pending); err != nil {
			return wrapStoreError(err, "ledger", "appending rows to "+label)
		}
		if err := i.ledgers.SortByDate(label); err != nil {
			return wrapStoreError(err, "ledger", "sorting "+label)
		}
	}

	return nil
}

// wrapStoreError ensures store failures surface as store-category errors.
func wrapStoreError(err error, store, detail string) error {
	if impErr, ok := imperrors.AsImportError(err); ok {
		return impErr
	}
	code := imperrors.CodeLedgerUnavailable
	if store == "source" {
		code = imperrors.CodeSourceUnavailable
	}
	return imperrors.StoreError(code, store, detail, err)
}
