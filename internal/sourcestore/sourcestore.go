// Package sourcestore provides the filesystem implementation of the source
// collaborator: it walks a directory tree of bank-export CSV files and
// reads their raw rows.
//
// The expected layout is root/<file format>/<account name>/<anything>.csv;
// the two directory levels carry the (format, account) pair the conversion
// registry is keyed on. The store is backed by an afero filesystem so tests
// can run against an in-memory tree.
package sourcestore

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang-bank-import-service/internal/importer"
	imperrors "golang-bank-import-service/pkg/errors"
	"golang-bank-import-service/pkg/logger"

	"github.com/spf13/afero"
)

// Store reads bank CSV exports from a directory tree.
type Store struct {
	fs     afero.Fs
	root   string
	logger logger.Logger
}

// New creates a Store rooted at the given directory. A nil filesystem means
// the operating system filesystem.
func New(fs afero.Fs, root string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"source root directory is required", nil)
	}

	info, err := fs.Stat(root)
	if err != nil {
		return nil, imperrors.StoreError(imperrors.CodeSourceUnavailable, "source",
			"cannot access source root "+root, err)
	}
	if !info.IsDir() {
		return nil, imperrors.StoreError(imperrors.CodeSourceUnavailable, "source",
			root+" is not a directory", nil)
	}

	return &Store{
		fs:     fs,
		root:   root,
		logger: logger.GetGlobalLogger().WithComponent("sourcestore"),
	}, nil
}

// ListFiles walks the source tree and returns every CSV file in lexical
// order. Paths are relative to the root, with forward slashes, and serve as
// the processed-set keys. CSVs outside the format/account layout are skipped
// with a warning.
func (s *Store) ListFiles() ([]importer.SourceFile, error) {
	var files []importer.SourceFile

	walkErr := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		segments := strings.Split(rel, "/")
		if len(segments) != 3 {
			s.logger.WithField("file", rel).Warn("CSV outside format/account layout, skipping")
			return nil
		}

		files = append(files, importer.SourceFile{
			Path:    rel,
			Format:  segments[0],
			Account: segments[1],
		})
		return nil
	})
	if walkErr != nil {
		return nil, imperrors.StoreError(imperrors.CodeSourceUnavailable, "source",
			"walking source tree "+s.root, walkErr)
	}

	sort.Slice(files, func(a, b int) bool { return files[a].Path < files[b].Path })
	return files, nil
}

// Open reads a file's CSV rows, header row included. Rows may have varying
// widths; the converters guard their own column access.
func (s *Store) Open(path string) ([][]string, error) {
	file, err := s.fs.Open(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, imperrors.StoreError(imperrors.CodeSourceUnavailable, "source",
			"opening "+path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, imperrors.StoreError(imperrors.CodeSourceUnavailable, "source",
			"reading "+path, err)
	}

	return rows, nil
}
