package importer

import "golang-bank-import-service/internal/models"

// SourceFile identifies one bank-export CSV by its path and the
// (format, account) pair derived from its directory position: the top-level
// directory names the file format, the second-level directory the account.
type SourceFile struct {
	Path    string
	Format  string
	Account string
}

// SourceStore lists and reads bank-export CSV files.
type SourceStore interface {
	// ListFiles returns every CSV under the source root in a stable order.
	ListFiles() ([]SourceFile, error)
	// Open reads a file's raw CSV rows, header row included.
	Open(path string) ([][]string, error)
}

// LedgerStore is the external sink holding one worksheet per ledger. A
// ledger is created with the canonical header row the first time it is
// touched.
type LedgerStore interface {
	// ExistingIDs returns the transaction ids already present in a ledger.
	ExistingIDs(label string) (map[string]struct{}, error)
	// AppendRows appends new canonical records to a ledger, in order.
	AppendRows(label string, records []*models.Record) error
	// SortByDate re-sorts a ledger's data rows by the Date column.
	SortByDate(label string) error
}

// ProcessedStore persists the set of already-imported source file paths.
type ProcessedStore interface {
	// Existing returns the previously processed file paths.
	Existing() (map[string]struct{}, error)
	// Append records newly processed file paths, in order.
	Append(paths []string) error
}
