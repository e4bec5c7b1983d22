package services

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
	"financas/internal/export"
)

// SheetWriter pushes an annual report to an external spreadsheet.
type SheetWriter interface {
	WriteAnnual(ctx context.Context, r core.AnnualReport) (string, error)
}

// ExportService renders reports for download or for a shared spreadsheet.
type ExportService struct {
	reports *ReportService
	sheets  SheetWriter
}

// NewExportService accepts a nil writer when Sheets export is disabled.
func NewExportService(reports *ReportService, sheets SheetWriter) *ExportService {
	return &ExportService{reports: reports, sheets: sheets}
}

// AnnualXLSX returns the annual report of userID as a workbook.
func (s *ExportService) AnnualXLSX(ctx context.Context, userID string, year int) ([]byte, error) {
	report, err := s.reports.Annual(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	data, err := export.AnnualXLSX(report)
	if err != nil {
		return nil, fmt.Errorf("render annual report %d: %w", year, err)
	}
	return data, nil
}

func (s *ExportService) SheetsEnabled() bool {
	return s.sheets != nil
}

// PushAnnual writes the annual report of userID to the spreadsheet and
// returns the updated range.
func (s *ExportService) PushAnnual(ctx context.Context, userID string, year int) (string, error) {
	if s.sheets == nil {
		return "", core.NewValidationError("sheets", "export is not configured")
	}
	report, err := s.reports.Annual(ctx, userID, year)
	if err != nil {
		return "", err
	}
	ref, err := s.sheets.WriteAnnual(ctx, report)
	if err != nil {
		return "", fmt.Errorf("push annual report %d: %w", year, err)
	}
	slog.InfoContext(ctx, "Annual report exported",
		"user_id", userID, "operation", "export", "year", year, "range", ref)
	return ref, nil
}
