package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"complaintsync/internal/complaint"
)

// Values are stored exactly as sent so preload reads back what was
// fingerprinted.
const (
	valueInputRaw   = "RAW"
	insertRows      = "INSERT_ROWS"
	spreadsheetMIME = "application/vnd.google-apps.spreadsheet"
)

// Options configures the Google Sheets table.
type Options struct {
	// Service account key file. Empty means the client options carry auth.
	CredentialsFile string
	// SpreadsheetID wins over SpreadsheetName when both are set.
	SpreadsheetID   string
	SpreadsheetName string
	Worksheet       string

	// Sustained request rate against the Sheets API. Zero uses 1/s.
	RequestsPerSecond float64

	// Extra client options, mostly endpoints for tests.
	SheetsOptions []option.ClientOption
	DriveOptions  []option.ClientOption

	Logger *zap.Logger
}

// SheetsTable is a Table backed by one worksheet of a Google spreadsheet.
type SheetsTable struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	limiter       *rate.Limiter
	log           *zap.Logger
}

// Open connects to the spreadsheet, resolving it by name through Drive when
// no ID is configured, and checks that the worksheet exists.
func Open(ctx context.Context, opts Options) (*SheetsTable, error) {
	if opts.Worksheet == "" {
		return nil, eris.New("sheet: worksheet name is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}

	var auth []option.ClientOption
	if opts.CredentialsFile != "" {
		auth = append(auth, option.WithCredentialsFile(opts.CredentialsFile))
	}

	sheetsOpts := append(append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, auth...), opts.SheetsOptions...)
	svc, err := sheets.NewService(ctx, sheetsOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: create sheets service")
	}

	id := opts.SpreadsheetID
	if id == "" {
		if opts.SpreadsheetName == "" {
			return nil, eris.New("sheet: spreadsheet ID or name is required")
		}
		driveOpts := append(append([]option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}, auth...), opts.DriveOptions...)
		driveSvc, err := drive.NewService(ctx, driveOpts...)
		if err != nil {
			return nil, eris.Wrap(err, "sheet: create drive service")
		}
		id, err = findSpreadsheet(ctx, driveSvc, opts.SpreadsheetName)
		if err != nil {
			return nil, err
		}
		log.Info("resolved spreadsheet by name", zap.String("name", opts.SpreadsheetName), zap.String("spreadsheet_id", id))
	}

	ss, err := svc.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(WrapError(err), "sheet: get spreadsheet %s", id)
	}
	found := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == opts.Worksheet {
			found = true
			break
		}
	}
	if !found {
		return nil, eris.Wrapf(ErrNotFound, "sheet: worksheet %q", opts.Worksheet)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &SheetsTable{
		svc:           svc,
		spreadsheetID: id,
		worksheet:     opts.Worksheet,
		limiter:       rate.NewLimiter(rate.Limit(rps), 5),
		log:           log,
	}, nil
}

// findSpreadsheet returns the ID of the first spreadsheet with this exact name.
func findSpreadsheet(ctx context.Context, svc *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMIME)

	res, err := svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", eris.Wrapf(WrapError(err), "sheet: look up spreadsheet %q", name)
	}
	if len(res.Files) == 0 {
		return "", eris.Wrapf(ErrNotFound, "sheet: spreadsheet %q", name)
	}
	return res.Files[0].Id, nil
}

// SpreadsheetID returns the resolved spreadsheet ID.
func (t *SheetsTable) SpreadsheetID() string {
	return t.spreadsheetID
}

// dataRange covers the worksheet's complaint columns.
func (t *SheetsTable) dataRange() string {
	last := rune('A' + len(complaint.Columns) - 1)
	name := strings.ReplaceAll(t.worksheet, "'", "''")
	return fmt.Sprintf("'%s'!A:%c", name, last)
}

func (t *SheetsTable) values(ctx context.Context) ([][]string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vr, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.dataRange()).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrap(WrapError(err), "sheet: read values")
	}

	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			switch v := cell.(type) {
			case string:
				row[i] = v
			case nil:
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadRows returns every row below the header.
func (t *SheetsTable) ReadRows(ctx context.Context) ([][]string, error) {
	rows, err := t.values(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// EnsureHeader writes the header row when the worksheet is empty.
func (t *SheetsTable) EnsureHeader(ctx context.Context) error {
	rows, err := t.values(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	t.log.Info("worksheet empty, writing header", zap.String("worksheet", t.worksheet))
	return t.AppendRow(ctx, complaint.Header())
}

// AppendRow appends one row after the last non-empty row.
func (t *SheetsTable) AppendRow(ctx context.Context, row []string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err := t.svc.Spreadsheets.Values.
		Append(t.spreadsheetID, t.dataRange(), &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(WrapError(err), "sheet: append row")
	}
	return nil
}
