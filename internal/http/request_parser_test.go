package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"financas/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		want       MonthParams
		wantFields []string
	}{
		{"valid", "year=2024&month=2", MonthParams{Year: 2024, Month: 2}, nil},
		{"padded", "year=%202024%20&month=02", MonthParams{Year: 2024, Month: 2}, nil},
		{"missing both", "", MonthParams{}, []string{"year", "month"}},
		{"not a number", "year=abc&month=1", MonthParams{}, []string{"year"}},
		{"month out of range", "year=2024&month=0", MonthParams{}, []string{"month"}},
		{"year out of range", "year=99&month=5", MonthParams{}, []string{"year"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ParseMonthParams() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("ParseMonthParams() = %+v, want %+v", got, tt.want)
				}
				return
			}
			var v *core.ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("ParseMonthParams() error = %v, want ValidationError", err)
			}
			for _, f := range tt.wantFields {
				if _, ok := v.Fields[f]; !ok {
					t.Errorf("fields = %v, missing %q", v.Fields, f)
				}
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"year=2025", 2025, false},
		{"", 0, true},
		{"year=20x5", 0, true},
		{"year=10000", 0, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := ParseYear(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseYear(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseYear(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestParseDateParam(t *testing.T) {
	def := core.NewDate(2024, 6, 1)
	tests := []struct {
		query   string
		want    core.Date
		wantErr bool
	}{
		{"", def, false},
		{"from=2024-02-29", core.NewDate(2024, 2, 29), false},
		{"from=2024-02-30", core.Date{}, true},
		{"from=29/02/2024", core.Date{}, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := ParseDateParam(q, "from", def)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDateParam(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateParam(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	tests := []struct {
		name      string
		body      string
		limit     int64
		wantField string
	}{
		{"ok", `{"name":"a","count":2}`, maxBodyBytes, ""},
		{"empty", ``, maxBodyBytes, "body"},
		{"malformed", `{"name":`, maxBodyBytes, "body"},
		{"wrong type", `{"count":"two"}`, maxBodyBytes, "count"},
		{"trailing value", `{"name":"a"} {"name":"b"}`, maxBodyBytes, "body"},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var dst payload
			err := DecodeJSON(w, r, &dst, tt.limit)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() error = %v", err)
				}
				if dst.Name != "a" || dst.Count != 2 {
					t.Errorf("DecodeJSON() = %+v", dst)
				}
				return
			}
			var v *core.ValidationError
			if !errors.As(err, &v) {
				t.Fatalf("DecodeJSON() error = %v, want ValidationError", err)
			}
			if _, ok := v.Fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want %q", v.Fields, tt.wantField)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Mercado  ", "Mercado"},
		{"Pão\x00 de\x07 queijo", "Pão de queijo"},
		{"linha\tcom\ttab", "linha\tcom\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
