package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"gastos/internal/core"
	ports "gastos/internal/ledger"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client is the Google Sheets row store. Each table lives in its own
// worksheet ("gastos", "ingresos") of a single shared spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetNames    map[core.Table]string
}

// Ensure interface conformance
var _ ports.RowStore = (*Client)(nil)

// New creates a Sheets client for the given spreadsheet. Worksheet
// titles default to the table sheet names; non-empty overrides win.
func New(ctx context.Context, spreadsheetID string, overrides map[core.Table]string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	names := map[core.Table]string{
		core.Expenses: core.Expenses.SheetName(),
		core.Income:   core.Income.SheetName(),
	}
	for t, name := range overrides {
		if name = strings.TrimSpace(name); name != "" {
			names[t] = name
		}
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetNames: names}, nil
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional worksheet titles: SHEET_GASTOS (default "gastos"),
// SHEET_INGRESOS (default "ingresos").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), map[core.Table]string{
		core.Expenses: os.Getenv("SHEET_GASTOS"),
		core.Income:   os.Getenv("SHEET_INGRESOS"),
	})
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) sheetName(t core.Table) string {
	if name, ok := c.sheetNames[t]; ok {
		return name
	}
	return t.SheetName()
}

// ReadAll returns every row of the worksheet, header included. A
// worksheet that does not exist yet reads as empty.
func (c *Client) ReadAll(ctx context.Context, t core.Table) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:H", c.sheetName(t))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isMissingWorksheet(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, toStrings(row))
	}
	return out, nil
}

// AppendRow appends one record row after the last non-empty row.
func (c *Client) AppendRow(ctx context.Context, t core.Table, row []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	rng := fmt.Sprintf("%s!A:H", c.sheetName(t))
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}

// EnsureTable creates the worksheet with the fixed header row when it
// does not exist yet, and restores the header when the first row is
// empty. Existing data rows are never touched.
func (c *Client) EnsureTable(ctx context.Context, t core.Table) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	name := c.sheetName(t)

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	exists := false
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{
						Title: name,
						GridProperties: &gsheet.GridProperties{
							RowCount:    1000,
							ColumnCount: int64(len(core.Header) + 4),
						},
					},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add worksheet %s: %w", name, err)
		}
		slog.InfoContext(ctx, "Created worksheet", "sheet", name, "table", t.String())
	}

	headRng := fmt.Sprintf("%s!A1:H1", name)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, headRng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header %s: %w", headRng, err)
	}
	if len(resp.Values) > 0 && len(toStrings(resp.Values[0])) > 0 && strings.TrimSpace(fmt.Sprint(resp.Values[0][0])) != "" {
		return nil
	}

	header := make([]any, len(core.Header))
	for i, h := range core.Header {
		header[i] = h
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headRng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header %s: %w", headRng, err)
	}
	return nil
}

// isMissingWorksheet reports whether err is the Sheets API rejecting a
// range whose worksheet does not exist yet.
func isMissingWorksheet(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) &&
		apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "Unable to parse range")
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
