// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, month and year query parameters, and dates.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"financas/internal/core"
)

const (
	// maxBodyBytes bounds ordinary JSON bodies.
	maxBodyBytes = 1 << 20
	// maxBulkBodyBytes bounds backup restores and bulk imports.
	maxBulkBodyBytes = 16 << 20
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// DecodeJSON reads a single JSON value from the body into dst. Every
// failure is a *core.ValidationError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &tooLarge):
			return core.NewValidationError("body", fmt.Sprintf("must not exceed %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			return core.NewValidationError("body", "must not be empty")
		case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
			return core.NewValidationError("body", "malformed JSON")
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return core.NewValidationError(typeErr.Field, "has the wrong type")
		default:
			var v *core.ValidationError
			if errors.As(err, &v) {
				return v
			}
			return core.NewValidationError("body", sanitizeInput(err.Error()))
		}
	}
	if dec.More() {
		return core.NewValidationError("body", "must contain a single JSON value")
	}
	return nil
}

// ParseMonthParams extracts the required year and month query parameters.
func ParseMonthParams(query url.Values) (MonthParams, error) {
	v := &core.ValidationError{}
	year, yerr := requiredInt(query, "year")
	if yerr != "" {
		v.Add("year", yerr)
	}
	month, merr := requiredInt(query, "month")
	if merr != "" {
		v.Add("month", merr)
	}
	if err := v.OrNil(); err != nil {
		return MonthParams{}, err
	}
	if err := core.ValidMonth(year, month); err != nil {
		return MonthParams{}, err
	}
	return MonthParams{Year: year, Month: month}, nil
}

// ParseYear extracts the required year query parameter.
func ParseYear(query url.Values) (int, error) {
	year, msg := requiredInt(query, "year")
	if msg != "" {
		return 0, core.NewValidationError("year", msg)
	}
	if err := core.ValidMonth(year, 1); err != nil {
		return 0, err
	}
	return year, nil
}

// ParseDateParam reads name as a date, returning def when absent.
func ParseDateParam(query url.Values, name string, def core.Date) (core.Date, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return def, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, core.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func requiredInt(query url.Values, name string) (int, string) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return 0, "is required"
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "must be a number"
	}
	return n, ""
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
