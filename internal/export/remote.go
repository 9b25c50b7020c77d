package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jonathan/mapleads/internal/types"
)

// TitlePrefix names every spreadsheet created by ExportRemote.
const TitlePrefix = "Google Maps Leads - "

// Export stages reported in RemoteError.
const (
	StageCreate = "create"
	StageAppend = "append"
)

// Sheet identifies a created spreadsheet.
type Sheet struct {
	ID  string
	URL string
}

// Destination is a remote spreadsheet service.
type Destination interface {
	Create(ctx context.Context, title string) (Sheet, error)
	Append(ctx context.Context, id string, rows [][]string) error
}

// RemoteError reports a failed remote export. After an append failure SheetID and
// SheetURL name the spreadsheet that was created and left behind.
type RemoteError struct {
	Stage    string
	Status   int
	Body     string
	SheetID  string
	SheetURL string
	Cause    error
}

func (e *RemoteError) Error() string {
	verb := "create sheet"
	if e.Stage == StageAppend {
		verb = "append data"
	}
	detail := e.Body
	if detail == "" && e.Cause != nil {
		detail = e.Cause.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("Failed to %s: %d - %s", verb, e.Status, detail)
	}
	return fmt.Sprintf("Failed to %s: %s", verb, detail)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// ExportRemote creates a spreadsheet titled with the export time and appends the
// sheet header and one row per record. It returns the spreadsheet URL.
func ExportRemote(ctx context.Context, dest Destination, records []types.LeadRecord, now time.Time) (string, error) {
	sheet, err := dest.Create(ctx, TitlePrefix+now.Format("1/2/2006, 3:04:05 PM"))
	if err != nil {
		return "", remoteError(StageCreate, Sheet{}, err)
	}

	if err := dest.Append(ctx, sheet.ID, Rows(records, SheetColumns())); err != nil {
		return "", remoteError(StageAppend, sheet, err)
	}
	return sheet.URL, nil
}

func remoteError(stage string, sheet Sheet, err error) *RemoteError {
	re := &RemoteError{Stage: stage, SheetID: sheet.ID, SheetURL: sheet.URL, Cause: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		re.Status = apiErr.Code
		re.Body = apiErr.Body
		if re.Body == "" {
			re.Body = apiErr.Message
		}
	}
	return re
}

// SheetsDestination writes to Google Sheets.
type SheetsDestination struct {
	srv *sheets.Service
}

// NewSheetsDestination builds a destination from client options, such as
// option.WithCredentialsFile or option.WithTokenSource.
func NewSheetsDestination(ctx context.Context, opts ...option.ClientOption) (*SheetsDestination, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsDestination{srv: srv}, nil
}

// NewSheetsDestinationForEndpoint builds an unauthenticated destination against
// an alternate endpoint.
func NewSheetsDestinationForEndpoint(ctx context.Context, endpoint string, client *http.Client) (*SheetsDestination, error) {
	return NewSheetsDestination(ctx,
		option.WithEndpoint(endpoint),
		option.WithHTTPClient(client),
		option.WithoutAuthentication(),
	)
}

// Create makes an empty spreadsheet.
func (d *SheetsDestination) Create(ctx context.Context, title string) (Sheet, error) {
	resp, err := d.srv.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return Sheet{}, err
	}
	return Sheet{ID: resp.SpreadsheetId, URL: resp.SpreadsheetUrl}, nil
}

// Append writes rows starting at A1 without value interpretation.
func (d *SheetsDestination) Append(ctx context.Context, id string, rows [][]string) error {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	_, err := d.srv.Spreadsheets.Values.Append(id, "A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
