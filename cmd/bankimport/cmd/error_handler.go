package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	imperrors "golang-bank-import-service/pkg/errors"
	"golang-bank-import-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError reports an error to the user and returns the process exit
// code to use.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Import failed")

	if importErr, ok := imperrors.AsImportError(err); ok {
		return h.handleImportError(importErr)
	}

	return h.handleGenericError(err)
}

// handleImportError handles ImportError with detailed context
func (h *CLIErrorHandler) handleImportError(err *imperrors.ImportError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.ExitCode()
}

// handleGenericError handles non-ImportError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detail\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category imperrors.Category) string {
	switch category {
	case imperrors.CategoryConfig:
		return `Configuration error help:
• Check your command-line flags and environment variables
• Verify the conversions file syntax (YAML)
• Check that every conversion names a known converter kind
• Use 'bankimport import --help' to see all available options`

	case imperrors.CategoryParse:
		return `Parse error help:
• Verify the CSV file matches the conversion configured for its
  format and account directories
• Check date values against the configured date layout
• Ensure amounts are decimal numbers without currency symbols
• Rows with parse errors are skipped; fix the file and re-run`

	case imperrors.CategoryValidation:
		return `Validation error help:
• Check that each row has either a money-in or a money-out amount
• Verify the cutoff date uses YYYY-MM-DD
• Check the conversion field list against the ledger columns`

	case imperrors.CategoryStore:
		return `Store error help:
• Check the spreadsheet key and service-account credentials
• Verify the service account has edit access to the spreadsheet
• Check network connectivity to the Google Sheets API
• Re-running after a partial failure is safe; duplicates are filtered`

	default:
		return `For more help:
• Use 'bankimport --help' for general help
• Use 'bankimport import --help' for command-specific help`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	if os.IsPermission(err) || err == syscall.EACCES {
		return true
	}
	return strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}
