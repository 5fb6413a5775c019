// Package sheets implements the ledger and processed-file collaborators on
// top of a Google spreadsheet, one worksheet per ledger plus a "Processed"
// worksheet listing imported file paths.
//
// The importer core only sees the store interfaces; everything
// Google-specific (worksheet creation, header rows, value ranges, the
// sort-by-date request) lives here.
package sheets

import (
	"context"
	"fmt"

	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"
	"golang-bank-import-service/pkg/logger"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	// processedSheet is the worksheet tracking already-imported files.
	processedSheet  = "Processed"
	processedHeader = "Files Processed"

	// dateFormatPattern is applied to the Date column so serial day counts
	// render as dates.
	dateFormatPattern = "yyyy-mm-dd"
)

// Client talks to one Google spreadsheet. It implements the importer's
// LedgerStore and ProcessedStore interfaces.
type Client struct {
	ctx           context.Context
	service       *sheets.Service
	spreadsheetID string
	logger        logger.Logger

	// sheetIDs caches worksheet titles to their numeric sheet ids.
	sheetIDs map[string]int64
}

// NewClient creates a spreadsheet client. With an empty credentials file,
// Application Default Credentials are used.
func NewClient(ctx context.Context, spreadsheetID, credentialsFile string) (*Client, error) {
	if spreadsheetID == "" {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"spreadsheet id is required", nil)
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, imperrors.StoreError(imperrors.CodeLedgerUnavailable, "ledger",
			"creating sheets client", err)
	}

	return &Client{
		ctx:           ctx,
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.GetGlobalLogger().WithComponent("sheets"),
		sheetIDs:      make(map[string]int64),
	}, nil
}

// ExistingIDs returns the transaction ids already present in a ledger
// worksheet, creating the worksheet if needed.
func (c *Client) ExistingIDs(label string) (map[string]struct{}, error) {
	if _, err := c.ensureLedger(label); err != nil {
		return nil, err
	}

	values, err := c.columnValues(label, models.ColID)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(values))
	for row, value := range values {
		if row == 0 {
			continue // header
		}
		if value != "" {
			ids[value] = struct{}{}
		}
	}
	return ids, nil
}

// AppendRows appends canonical records to a ledger worksheet, in order.
func (c *Client) AppendRows(label string, records []*models.Record) error {
	if _, err := c.ensureLedger(label); err != nil {
		return err
	}

	values := make([][]interface{}, len(records))
	for i, record := range records {
		values[i] = record.Values()
	}

	_, err := c.service.Spreadsheets.Values.
		Append(c.spreadsheetID, quoteRange(label, "A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(c.ctx).Do()
	if err != nil {
		return imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
			"appending rows to "+label, err)
	}

	return nil
}

// SortByDate re-sorts a ledger's data rows by the Date column, ascending.
// The header row is left in place.
func (c *Client) SortByDate(label string) error {
	sheetID, err := c.ensureLedger(label)
	if err != nil {
		return err
	}

	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			SortRange: &sheets.SortRangeRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 1,
				},
				SortSpecs: []*sheets.SortSpec{{
					DimensionIndex: int64(models.ColDate),
					SortOrder:      "ASCENDING",
				}},
			},
		}},
	}

	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, request).Context(c.ctx).Do(); err != nil {
		return imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
			"sorting "+label, err)
	}
	return nil
}

// Existing returns the previously processed file paths.
func (c *Client) Existing() (map[string]struct{}, error) {
	if err := c.ensureProcessed(); err != nil {
		return nil, err
	}

	values, err := c.columnValues(processedSheet, 0)
	if err != nil {
		return nil, err
	}

	processed := make(map[string]struct{}, len(values))
	for row, value := range values {
		if row == 0 {
			continue // header
		}
		if value != "" {
			processed[value] = struct{}{}
		}
	}
	return processed, nil
}

// Append records newly processed file paths.
func (c *Client) Append(paths []string) error {
	if err := c.ensureProcessed(); err != nil {
		return err
	}

	values := make([][]interface{}, len(paths))
	for i, path := range paths {
		values[i] = []interface{}{path}
	}

	_, err := c.service.Spreadsheets.Values.
		Append(c.spreadsheetID, quoteRange(processedSheet, "A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(c.ctx).Do()
	if err != nil {
		return imperrors.StoreError(imperrors.CodeWriteFailed, "processed",
			"recording processed files", err)
	}

	return nil
}

// ensureLedger returns the sheet id of a ledger worksheet, creating it with
// the canonical header row and the date column format on first use.
func (c *Client) ensureLedger(label string) (int64, error) {
	if sheetID, ok := c.sheetIDs[label]; ok {
		return sheetID, nil
	}

	if err := c.refreshSheetIDs(); err != nil {
		return 0, err
	}
	if sheetID, ok := c.sheetIDs[label]; ok {
		return sheetID, nil
	}

	c.logger.WithField("ledger", label).Info("Creating ledger worksheet")

	sheetID, err := c.addSheet(label)
	if err != nil {
		return 0, err
	}

	header := make([]interface{}, len(models.Columns))
	for i, column := range models.Columns {
		header[i] = column
	}
	_, err = c.service.Spreadsheets.Values.
		Update(c.spreadsheetID, quoteRange(label, "A1"), &sheets.ValueRange{Values: [][]interface{}{header}}).
		ValueInputOption("RAW").
		Context(c.ctx).Do()
	if err != nil {
		return 0, imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
			"writing header row for "+label, err)
	}

	// Format the Date column once; appended serial values then render as
	// dates.
	format := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartColumnIndex: int64(models.ColDate),
					EndColumnIndex:   int64(models.ColDate) + 1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "DATE",
							Pattern: dateFormatPattern,
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, format).Context(c.ctx).Do(); err != nil {
		return 0, imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
			"formatting date column for "+label, err)
	}

	return sheetID, nil
}

// ensureProcessed creates the processed-files worksheet on first use.
func (c *Client) ensureProcessed() error {
	if _, ok := c.sheetIDs[processedSheet]; ok {
		return nil
	}

	if err := c.refreshSheetIDs(); err != nil {
		return err
	}
	if _, ok := c.sheetIDs[processedSheet]; ok {
		return nil
	}

	c.logger.Info("Creating processed-files worksheet")

	if _, err := c.addSheet(processedSheet); err != nil {
		return err
	}

	_, err := c.service.Spreadsheets.Values.
		Update(c.spreadsheetID, quoteRange(processedSheet, "A1"),
			&sheets.ValueRange{Values: [][]interface{}{{processedHeader}}}).
		ValueInputOption("RAW").
		Context(c.ctx).Do()
	if err != nil {
		return imperrors.StoreError(imperrors.CodeWriteFailed, "processed",
			"writing processed header row", err)
	}

	return nil
}

// refreshSheetIDs reloads the worksheet title to sheet-id cache.
func (c *Client) refreshSheetIDs() error {
	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(c.ctx).Do()
	if err != nil {
		return imperrors.StoreError(imperrors.CodeLedgerUnavailable, "ledger",
			"fetching spreadsheet metadata", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			c.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}
	return nil
}

// addSheet creates a worksheet and caches its sheet id.
func (c *Client) addSheet(title string) (int64, error) {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}

	response, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, request).Context(c.ctx).Do()
	if err != nil {
		return 0, imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
			"creating worksheet "+title, err)
	}

	for _, reply := range response.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			sheetID := reply.AddSheet.Properties.SheetId
			c.sheetIDs[title] = sheetID
			return sheetID, nil
		}
	}

	return 0, imperrors.StoreError(imperrors.CodeWriteFailed, "ledger",
		"worksheet "+title+" was created without a sheet id", nil)
}

// columnValues reads one column of a worksheet as display strings.
func (c *Client) columnValues(title string, column int) ([]string, error) {
	letter := ColumnLetter(column)
	rng := quoteRange(title, letter+":"+letter)

	response, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(c.ctx).Do()
	if err != nil {
		return nil, imperrors.StoreError(imperrors.CodeLedgerUnavailable, "ledger",
			"reading column "+letter+" of "+title, err)
	}

	values := make([]string, 0, len(response.Values))
	for _, row := range response.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprintf("%v", row[0]))
	}
	return values, nil
}

// ColumnLetter converts a zero-based column index to its A1 letter. The
// canonical schema stays within a single letter.
func ColumnLetter(column int) string {
	return string(rune('A' + column))
}

// quoteRange builds an A1 range with a quoted worksheet title, which is
// required for titles containing spaces or slashes.
func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", title, cells)
}
