package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const createdAtLayout = "2006-01-02 15:04:05"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ExpenseMirror = (*Client)(nil)

// Options configures the Sheets client. Credentials come from a service
// account, inline or from a file. Extra client options are appended last.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	ClientOptions   []goption.ClientOption
}

func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var clientOpts []goption.ClientOption

	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials file", "path", opts.CredentialsFile)
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(data))
	case len(opts.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	clientOpts = append(clientOpts, goption.WithScopes(gsheet.SpreadsheetsScope))
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append adds one row unless the id is already in column A.
func (c *Client) Append(ctx context.Context, e core.Expense) error {
	rows, err := c.findRows(ctx, e.ID)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		slog.DebugContext(ctx, "Expense already mirrored", "id", e.ID, "row", rows[0])
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{toRow(e)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName+"!A:D", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	slog.InfoContext(ctx, "Expense mirrored to sheet", "id", e.ID, "sheet", c.sheetName)
	return nil
}

// Remove clears every row whose column A holds id.
func (c *Client) Remove(ctx context.Context, id int64) error {
	rows, err := c.findRows(ctx, id)
	if err != nil {
		return err
	}

	for _, row := range rows {
		rng := fmt.Sprintf("%s!A%d:D%d", c.sheetName, row, row)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear row %d: %w", row, err)
		}
	}

	slog.InfoContext(ctx, "Expense removed from sheet", "id", id, "rows", len(rows))
	return nil
}

// Replace clears the sheet and writes a header plus every item.
func (c *Client) Replace(ctx context.Context, items []core.Expense) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.sheetName+"!A:D", &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(items)+1)
	header := make([]interface{}, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, e := range ports.SortByID(items) {
		values = append(values, toRow(e))
	}

	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	slog.InfoContext(ctx, "Sheet rebuilt", "sheet", c.sheetName, "rows", len(items))
	return nil
}

// findRows returns 1-based row numbers whose first cell equals id.
func (c *Client) findRows(ctx context.Context, id int64) ([]int, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column: %w", err)
	}
	return matchRows(resp.Values, id), nil
}

func matchRows(values [][]interface{}, id int64) []int {
	want := strconv.FormatInt(id, 10)
	var rows []int
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			rows = append(rows, i+1)
		}
	}
	return rows
}

func toRow(e core.Expense) []interface{} {
	created := ""
	if !e.CreatedAt.IsZero() {
		created = e.CreatedAt.UTC().Format(createdAtLayout)
	}
	return []interface{}{
		strconv.FormatInt(e.ID, 10),
		e.ItemName,
		e.Amount.String(),
		created,
	}
}

// parseRow is the inverse of toRow, used when reading the sheet back.
func parseRow(row []interface{}) (core.Expense, bool) {
	if len(row) < 3 {
		return core.Expense{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
	if err != nil || id <= 0 {
		return core.Expense{}, false
	}
	amount, err := core.ParseAmount(strings.ReplaceAll(fmt.Sprint(row[2]), ",", ""))
	if err != nil {
		return core.Expense{}, false
	}
	e := core.Expense{ID: id, ItemName: fmt.Sprint(row[1]), Amount: amount}
	if len(row) > 3 {
		if t, err := time.Parse(createdAtLayout, strings.TrimSpace(fmt.Sprint(row[3]))); err == nil {
			e.CreatedAt = t
		}
	}
	return e, true
}

// ListMirrored reads back every data row, skipping the header and blanks.
func (c *Client) ListMirrored(ctx context.Context) ([]core.Expense, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:D").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	var out []core.Expense
	for _, row := range resp.Values {
		if e, ok := parseRow(row); ok {
			out = append(out, e)
		}
	}
	return out, nil
}
