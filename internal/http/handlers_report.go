package http

import (
	"net/http"
	"strconv"

	"financas/internal/export"
)

type sheetsPushResponse struct {
	Year  int    `json:"year"`
	Range string `json:"range"`
}

// handleDashboardSummary aggregates ?year=&month= for the dashboard.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	summary, err := s.deps.Reports.Summary(r.Context(), caller(r), p.Year, p.Month)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, summary)
}

func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	report, err := s.deps.Reports.Annual(r.Context(), caller(r), year)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, report)
}

// handleReportYears lists the years holding any record, newest first.
func (s *Server) handleReportYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.deps.Reports.AvailableYears(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(years))
}

// handleAnnualXLSX streams the annual report as a workbook download.
func (s *Server) handleAnnualXLSX(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	data, err := s.deps.Exports.AnnualXLSX(r.Context(), caller(r), year)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(year)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleAnnualSheets pushes the annual report to the configured
// spreadsheet.
func (s *Server) handleAnnualSheets(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	ref, err := s.deps.Exports.PushAnnual(r.Context(), caller(r), year)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, sheetsPushResponse{Year: year, Range: ref})
}
