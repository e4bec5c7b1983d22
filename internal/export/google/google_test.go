package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"financas/internal/core"
	"financas/internal/export"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Relatorio", 2024, "2024 Relatorio"},
		{"2023 Relatorio", 2024, "2023 Relatorio"},
		{"  Relatorio ", 2025, "2025 Relatorio"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inline  string
		file    string
		want    string
		wantErr bool
	}{
		{"inline wins", `{"inline":true}`, file, `{"inline":true}`, false},
		{"file", "", file, `{"type":"service_account"}`, false},
		{"missing file", "", "/does/not/exist.json", "", true},
		{"nothing", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Credentials(tt.inline, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Credentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("Credentials() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStack(t *testing.T) {
	tables := []export.Table{
		{Name: "A", Header: []string{"x"}, Rows: [][]any{{1}, {2}}},
		{Name: "B", Header: []string{"y"}, Rows: [][]any{{3}}},
	}
	got := stack(tables)
	// title, header, 2 rows, separator, title, header, 1 row
	if len(got) != 8 {
		t.Fatalf("len(stack) = %d, want 8", len(got))
	}
	if got[0][0] != "A" || len(got[4]) != 0 || got[5][0] != "B" {
		t.Errorf("stack layout = %v", got)
	}
}

// fakeSheets records the Sheets API calls made by the writer.
type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	calls    []string
	lastBody map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	f.calls = append(f.calls, r.Method+" "+path)

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "/v4/spreadsheets/sheet-1":
		sheets := make([]map[string]any, len(f.tabs))
		for i, tab := range f.tabs {
			sheets[i] = map[string]any{"properties": map[string]any{"title": tab}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		_ = json.Unmarshal(body, &f.lastBody)
		_, _ = io.WriteString(w, `{"updatedRange":"'2024 Relatorio'!A1:E25"}`)
	default:
		http.Error(w, "unexpected call", http.StatusNotFound)
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets) *Writer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	return NewWriterWithService(svc, "sheet-1")
}

func annualReport() core.AnnualReport {
	r := core.AnnualReport{Year: 2024, TotalAnnualIncome: decimal.Zero, TotalAnnualExpense: decimal.Zero, AnnualBalance: decimal.Zero}
	for m := 1; m <= 12; m++ {
		r.MonthlyData = append(r.MonthlyData, core.MonthData{Month: m, Income: decimal.Zero, Expense: decimal.Zero})
	}
	return r
}

func TestWriter_WriteAnnual_CreatesTab(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"Sheet1"}}
	w := newTestWriter(t, fake)

	ref, err := w.WriteAnnual(context.Background(), annualReport())
	if err != nil {
		t.Fatalf("WriteAnnual() error = %v", err)
	}
	if ref != "'2024 Relatorio'!A1:E25" {
		t.Errorf("WriteAnnual() = %q", ref)
	}
	if len(fake.tabs) != 2 || fake.tabs[1] != "2024 Relatorio" {
		t.Errorf("tabs = %v, want 2024 Relatorio added", fake.tabs)
	}
	values, _ := fake.lastBody["values"].([]any)
	// Resumo: title + header + 13, separator, Rendas: title + header,
	// separator, Contas: title + header
	if len(values) != 21 {
		t.Errorf("written rows = %d, want 21", len(values))
	}
}

func TestWriter_WriteAnnual_ReusesTab(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"2024 Relatorio"}}
	w := newTestWriter(t, fake)

	if _, err := w.WriteAnnual(context.Background(), annualReport()); err != nil {
		t.Fatalf("WriteAnnual() error = %v", err)
	}
	for _, c := range fake.calls {
		if strings.HasSuffix(c, ":batchUpdate") {
			t.Errorf("unexpected tab creation: %v", fake.calls)
		}
	}
}

func TestWriter_NilService(t *testing.T) {
	w := &Writer{spreadsheetID: "x"}
	if _, err := w.WriteAnnual(context.Background(), annualReport()); err == nil {
		t.Error("WriteAnnual() expected error without service")
	}
}
