package services

import (
	"context"
	"errors"
	"testing"

	"financas/internal/core"
)

type fakeSheetWriter struct {
	got core.AnnualReport
	err error
}

func (f *fakeSheetWriter) WriteAnnual(_ context.Context, r core.AnnualReport) (string, error) {
	f.got = r
	if f.err != nil {
		return "", f.err
	}
	return "'2024 Relatorio'!A1:E20", nil
}

func TestExportService_AnnualXLSX(t *testing.T) {
	ctx := context.Background()
	reports, expenses, _ := newReportFixture(t)
	_, _ = expenses.Create(ctx, "alice", plainInput("Mercado", "100", core.NewDate(2024, 2, 1)))

	s := NewExportService(reports, nil)
	data, err := s.AnnualXLSX(ctx, "alice", 2024)
	if err != nil {
		t.Fatalf("AnnualXLSX() error = %v", err)
	}
	// XLSX files are zip archives.
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Errorf("AnnualXLSX() did not return a zip archive")
	}

	if _, err := s.AnnualXLSX(ctx, "alice", 0); !errors.Is(err, core.ErrValidation) {
		t.Errorf("AnnualXLSX(year 0) error = %v, want validation", err)
	}
}

func TestExportService_PushAnnual(t *testing.T) {
	ctx := context.Background()
	reports, expenses, _ := newReportFixture(t)
	_, _ = expenses.Create(ctx, "alice", plainInput("Mercado", "100", core.NewDate(2024, 2, 1)))

	t.Run("disabled", func(t *testing.T) {
		s := NewExportService(reports, nil)
		if s.SheetsEnabled() {
			t.Error("SheetsEnabled() = true without writer")
		}
		if _, err := s.PushAnnual(ctx, "alice", 2024); !errors.Is(err, core.ErrValidation) {
			t.Errorf("PushAnnual() error = %v, want validation", err)
		}
	})

	t.Run("writes report", func(t *testing.T) {
		w := &fakeSheetWriter{}
		s := NewExportService(reports, w)
		ref, err := s.PushAnnual(ctx, "alice", 2024)
		if err != nil {
			t.Fatalf("PushAnnual() error = %v", err)
		}
		if ref == "" || w.got.Year != 2024 || !w.got.TotalAnnualExpense.Equal(dec("100")) {
			t.Errorf("PushAnnual() ref %q report %+v", ref, w.got)
		}
	})

	t.Run("writer failure", func(t *testing.T) {
		s := NewExportService(reports, &fakeSheetWriter{err: errors.New("quota")})
		if _, err := s.PushAnnual(ctx, "alice", 2024); err == nil {
			t.Error("PushAnnual() expected error")
		}
	})
}
