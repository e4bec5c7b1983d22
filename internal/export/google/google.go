// Package google pushes report tables to a Google Spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/export"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ReportTabBase is the tab name suffix; the year is prefixed.
const ReportTabBase = "Relatorio"

type Writer struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Credentials returns the service account JSON from the inline value or
// the file, preferring the inline value.
func Credentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// NewWriter creates a Sheets writer authenticated with service account
// credentials.
func NewWriter(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Writer, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	jwtCfg, err := goauth.JWTConfigFromJSON(credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	// The token source and the API calls share the pooled transport.
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(jwtCfg.Client(authCtx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWriterWithService(svc, spreadsheetID), nil
}

// NewWriterWithService wraps an existing service.
func NewWriterWithService(svc *gsheet.Service, spreadsheetID string) *Writer {
	return &Writer{svc: svc, spreadsheetID: spreadsheetID}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteAnnual replaces the content of the "<year> Relatorio" tab with the
// report tables stacked vertically, creating the tab when missing. It
// returns the written range.
func (w *Writer) WriteAnnual(ctx context.Context, r core.AnnualReport) (string, error) {
	if w.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	tab := yearPrefixedName(ReportTabBase, r.Year)
	if err := w.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	quoted := quoteTab(tab)
	if _, err := w.svc.Spreadsheets.Values.Clear(w.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", tab, err)
	}

	values := stack(export.AnnualTables(r))
	rng := fmt.Sprintf("%s!A1", quoted)
	resp, err := w.svc.Spreadsheets.Values.Update(w.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Annual report written to Google Sheets",
		"tab", tab,
		"rows", len(values),
		"updated_range", resp.UpdatedRange)

	if resp.UpdatedRange != "" {
		return resp.UpdatedRange, nil
	}
	return rng, nil
}

// ensureTab adds tab to the spreadsheet unless a sheet with that title exists.
func (w *Writer) ensureTab(ctx context.Context, tab string) error {
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created spreadsheet tab", "tab", tab)
	return nil
}

// stack lays tables out top to bottom: a title row, the header, the rows,
// then one empty separator row.
func stack(tables []export.Table) [][]any {
	var out [][]any
	for i, t := range tables {
		if i > 0 {
			out = append(out, []any{})
		}
		out = append(out, []any{t.Name})
		header := make([]any, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		out = append(out, header)
		out = append(out, t.Rows...)
	}
	return out
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
