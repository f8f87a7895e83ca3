package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	spreadsheetTitle = "Job Applications Tracker"
	sheetName        = "Sheet1"
)

var sheetHeaders = []interface{}{"Status", "Company", "Position", "Location", "Action Date"}

// SheetsStore is the Google Sheets ReconciliationStore backend. The
// spreadsheet id is resolved once at startup: read from the id file or
// created fresh and written back, so every run appends to the same
// sheet.
type SheetsStore struct {
	srv           *sheets.Service
	spreadsheetID string

	loaded  bool
	rows    map[string]sheetRow // dedup key -> stored row
	lastRow int                 // 1-based number of the last populated row
}

type sheetRow struct {
	number int // 1-based sheet row
	stored StoredApplication
}

func NewSheetsStore(ctx context.Context, credentialsPath, tokenPath, idPath string) (*SheetsStore, error) {
	httpClient, err := googleHTTPClient(ctx, credentialsPath, tokenPath, sheets.DriveFileScope)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	store := &SheetsStore{srv: srv}
	store.spreadsheetID, err = resolveSpreadsheetID(srv, idPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func resolveSpreadsheetID(srv *sheets.Service, idPath string) (string, error) {
	if data, err := os.ReadFile(idPath); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	created, err := srv.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: spreadsheetTitle},
	}).Fields("spreadsheetId").Do()
	if err != nil {
		return "", fmt.Errorf("creating spreadsheet: %w", err)
	}
	id := created.SpreadsheetId

	_, err = srv.Spreadsheets.Values.Update(id, sheetName+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{sheetHeaders},
	}).ValueInputOption("RAW").Do()
	if err != nil {
		return "", fmt.Errorf("writing header row: %w", err)
	}

	if err := os.WriteFile(idPath, []byte(id), 0644); err != nil {
		log.Printf("saving spreadsheet id to %s failed: %v", idPath, err)
	}
	log.Printf("created spreadsheet id=%s", id)
	return id, nil
}

// load reads the whole sheet once per run; Append/UpdateStatus keep the
// cache current afterwards.
func (s *SheetsStore) load() error {
	if s.loaded {
		return nil
	}
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A:E").Do()
	if err != nil {
		return fmt.Errorf("reading sheet values: %w", err)
	}

	s.rows = make(map[string]sheetRow)
	for i, row := range resp.Values {
		if i == 0 || len(row) < 3 {
			continue // header or short row
		}
		stored := StoredApplication{
			Status:        Status(cellString(row, 0)),
			CompanyName:   cellString(row, 1),
			PositionTitle: cellString(row, 2),
			Location:      cellString(row, 3),
			ActionDate:    cellString(row, 4),
		}
		key := strings.ToLower(strings.TrimSpace(stored.CompanyName)) + "|" +
			strings.ToLower(strings.TrimSpace(stored.PositionTitle))
		s.rows[key] = sheetRow{number: i + 1, stored: stored}
	}
	s.lastRow = len(resp.Values)
	if s.lastRow == 0 {
		s.lastRow = 1 // header row is written at creation
	}
	s.loaded = true
	return nil
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	v, _ := row[idx].(string)
	return strings.TrimSpace(v)
}

func (s *SheetsStore) Lookup(key string) (StoredApplication, bool, error) {
	if err := s.load(); err != nil {
		return StoredApplication{}, false, err
	}
	row, ok := s.rows[key]
	if !ok {
		return StoredApplication{}, false, nil
	}
	return row.stored, true, nil
}

func (s *SheetsStore) Append(app JobApplication) error {
	if err := s.load(); err != nil {
		return err
	}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A:E", &sheets.ValueRange{
		Values: [][]interface{}{{
			string(app.Status), app.CompanyName, app.PositionTitle, app.Location, app.ActionDate,
		}},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return fmt.Errorf("appending row: %w", err)
	}

	s.lastRow++
	s.rows[app.UniqueKey()] = sheetRow{
		number: s.lastRow,
		stored: StoredApplication{
			Status:        app.Status,
			CompanyName:   app.CompanyName,
			PositionTitle: app.PositionTitle,
			Location:      app.Location,
			ActionDate:    app.ActionDate,
		},
	}
	return nil
}

// UpdateStatus rewrites the existing row in place, keeping old cell
// values where the extracted ones are "unknown".
func (s *SheetsStore) UpdateStatus(key string, app JobApplication) error {
	if err := s.load(); err != nil {
		return err
	}
	row, ok := s.rows[key]
	if !ok {
		return s.Append(app)
	}

	merged := StoredApplication{
		Status:        app.Status,
		CompanyName:   resolveField(app.CompanyName, row.stored.CompanyName),
		PositionTitle: resolveField(app.PositionTitle, row.stored.PositionTitle),
		Location:      resolveField(app.Location, row.stored.Location),
		ActionDate:    resolveField(app.ActionDate, row.stored.ActionDate),
	}

	rangeName := fmt.Sprintf("%s!A%d:E%d", sheetName, row.number, row.number)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rangeName, &sheets.ValueRange{
		Values: [][]interface{}{{
			string(merged.Status), merged.CompanyName, merged.PositionTitle,
			merged.Location, merged.ActionDate,
		}},
	}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("updating row %d: %w", row.number, err)
	}

	row.stored = merged
	s.rows[key] = row
	return nil
}
