// Package sheets implements a table backend over the worksheets of a Google Sheets spreadsheet. Each
// table is a worksheet with the same title.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/uhppoted-app-forms/store"
)

// Maximum worksheet column, used for open-ended ranges.
const LAST_COLUMN = "ZZZ"

const DEFAULT_ROWS = 1000
const DEFAULT_COLUMNS = 26

var navy = sheets.Color{Red: 0x1a / 255.0, Green: 0x23 / 255.0, Blue: 0x7e / 255.0}
var white = sheets.Color{Red: 1.0, Green: 1.0, Blue: 1.0}

type Sheets struct {
	google        *sheets.Service
	spreadsheetId string
}

func NewSheets(google *sheets.Service, spreadsheetId string) *Sheets {
	return &Sheets{
		google:        google,
		spreadsheetId: spreadsheetId,
	}
}

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func SpreadsheetID(url string) (string, error) {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

func (s *Sheets) Lookup(ctx context.Context, name string) (bool, error) {
	sheet, err := s.getSheet(ctx, name)
	if err != nil {
		return false, err
	}

	return sheet != nil, nil
}

// Create adds a worksheet with a frozen, styled header row.
func (s *Sheets) Create(ctx context.Context, name string, header []string) error {
	columns := int64(DEFAULT_COLUMNS)
	if len(header) > DEFAULT_COLUMNS {
		columns = int64(len(header))
	}

	add := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: name,
						GridProperties: &sheets.GridProperties{
							RowCount:       DEFAULT_ROWS,
							ColumnCount:    columns,
							FrozenRowCount: 1,
						},
					},
				},
			},
		},
	}

	response, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheetId, &add).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error adding worksheet '%s' (%w)", name, err)
	} else if len(response.Replies) == 0 || response.Replies[0].AddSheet == nil {
		return fmt.Errorf("invalid response adding worksheet '%s'", name)
	}

	sheetId := response.Replies[0].AddSheet.Properties.SheetId

	// ... header
	row := sheets.RowData{}
	for _, h := range header {
		v := h
		row.Values = append(row.Values, &sheets.CellData{
			UserEnteredValue: &sheets.ExtendedValue{
				StringValue: &v,
			},
			UserEnteredFormat: &sheets.CellFormat{
				BackgroundColor:     &navy,
				HorizontalAlignment: "CENTER",
				TextFormat: &sheets.TextFormat{
					Bold:            true,
					ForegroundColor: &white,
				},
			},
		})
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateCells: &sheets.UpdateCellsRequest{
					Start: &sheets.GridCoordinate{
						SheetId:     sheetId,
						RowIndex:    0,
						ColumnIndex: 0,
					},
					Rows:   []*sheets.RowData{&row},
					Fields: "userEnteredValue,userEnteredFormat(backgroundColor,horizontalAlignment,textFormat)",
				},
			},
		},
	}

	if _, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheetId, &rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error writing header to worksheet '%s' (%w)", name, err)
	}

	return nil
}

func (s *Sheets) ClearRows(ctx context.Context, name string) error {
	sheet, err := s.worksheet(ctx, name)
	if err != nil {
		return err
	}

	ranges := []string{
		fmt.Sprintf("%s!A2:%s", quote(sheet.Properties.Title), LAST_COLUMN),
	}

	return s.clear(ctx, ranges)
}

func (s *Sheets) WriteRows(ctx context.Context, name string, start int, rows [][]any) error {
	sheet, err := s.worksheet(ctx, name)
	if err != nil {
		return err
	}

	if err := s.expand(ctx, sheet, start, rows); err != nil {
		return err
	}

	values := sheets.ValueRange{
		Range:  fmt.Sprintf("%s!A%d", quote(sheet.Properties.Title), start+1),
		Values: [][]any{},
	}

	for _, row := range rows {
		record := make([]any, len(row))
		for i, v := range row {
			record[i] = cell(v)
		}

		values.Values = append(values.Values, record)
	}

	rq := sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             []*sheets.ValueRange{&values},
	}

	if _, err := s.google.Spreadsheets.Values.BatchUpdate(s.spreadsheetId, &rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error writing to worksheet '%s' (%w)", name, err)
	}

	return nil
}

func (s *Sheets) ReadAll(ctx context.Context, name string) ([][]any, error) {
	sheet, err := s.worksheet(ctx, name)
	if err != nil {
		return nil, err
	}

	// ... numbers and booleans as typed values, not their displayed text
	response, err := s.google.Spreadsheets.Values.Get(s.spreadsheetId, quote(sheet.Properties.Title)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from worksheet '%s' (%w)", name, err)
	}

	return response.Values, nil
}

// Describe returns the spreadsheet title and the worksheet titles.
func (s *Sheets) Describe(ctx context.Context) (string, []string, error) {
	spreadsheet, err := s.getSpreadsheet(ctx)
	if err != nil {
		return "", nil, err
	}

	titles := []string{}
	for _, sheet := range spreadsheet.Sheets {
		titles = append(titles, sheet.Properties.Title)
	}

	title := ""
	if spreadsheet.Properties != nil {
		title = spreadsheet.Properties.Title
	}

	return title, titles, nil
}

// expand appends rows and columns to the worksheet grid if the write would overflow it.
func (s *Sheets) expand(ctx context.Context, sheet *sheets.Sheet, start int, rows [][]any) error {
	grid := sheet.Properties.GridProperties
	if grid == nil {
		return nil
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{},
	}

	if N := int64(start+len(rows)) - grid.RowCount; N > 0 {
		rq.Requests = append(rq.Requests, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:   sheet.Properties.SheetId,
				Dimension: "ROWS",
				Length:    N,
			},
		})
	}

	if N := int64(width) - grid.ColumnCount; N > 0 {
		rq.Requests = append(rq.Requests, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:   sheet.Properties.SheetId,
				Dimension: "COLUMNS",
				Length:    N,
			},
		})
	}

	if len(rq.Requests) > 0 {
		if _, err := s.google.Spreadsheets.BatchUpdate(s.spreadsheetId, &rq).Context(ctx).Do(); err != nil {
			return fmt.Errorf("error resizing worksheet '%s' (%w)", sheet.Properties.Title, err)
		}
	}

	return nil
}

func (s *Sheets) clear(ctx context.Context, ranges []string) error {
	rq := sheets.BatchClearValuesRequest{
		Ranges: ranges,
	}

	if _, err := s.google.Spreadsheets.Values.BatchClear(s.spreadsheetId, &rq).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

func (s *Sheets) getSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	spreadsheet, err := s.google.Spreadsheets.Get(s.spreadsheetId).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	return spreadsheet, nil
}

func (s *Sheets) getSheet(ctx context.Context, name string) (*sheets.Sheet, error) {
	spreadsheet, err := s.getSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && store.Key(sheet.Properties.Title) == store.Key(name) {
			return sheet, nil
		}
	}

	return nil, nil
}

func (s *Sheets) worksheet(ctx context.Context, name string) (*sheets.Sheet, error) {
	if sheet, err := s.getSheet(ctx, name); err != nil {
		return nil, err
	} else if sheet == nil {
		return nil, fmt.Errorf("unable to identify worksheet for '%s'", name)
	} else {
		return sheet, nil
	}
}

func cell(v any) any {
	switch t := v.(type) {
	case nil:
		return ""

	case time.Time:
		return t.Format("2006-01-02 15:04:05")

	default:
		return v
	}
}

func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
