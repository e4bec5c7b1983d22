// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses. Every body
// uses the same envelope: {"success":true,"data":...} on success and
// {"success":false,"error":...} or {"success":false,"errors":{...}} on
// failure.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/core"
)

// Error codes returned next to the message so clients can branch without
// parsing text.
const (
	CodeValidation   = "validation_failed"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodePartialWrite = "partial_write"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

// envelope is the wire shape of every JSON response.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Code       string            `json:"code,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	PurchaseID string            `json:"purchaseId,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       envelope
	headers    map[string]string
}

// NewJSONResponse creates a successful response builder with status 200.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		body:       envelope{Success: true},
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Message sets a human readable note.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	b.body.Message = msg
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "component", "http", "error", err)
	}
}

// ErrorResponse creates a failed response with a message and code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	b := NewJSONResponse().Status(statusCode)
	b.body.Success = false
	b.body.Error = message
	b.body.Code = code
	return b
}

// BadRequestError creates a 400 response for malformed requests.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeValidation, message)
}

// UnauthorizedError creates a 401 response.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, CodeUnauthorized, message)
}

// InternalServerError creates a 500 response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// ValidationErrorResponse creates a 400 response listing every field.
func ValidationErrorResponse(v *core.ValidationError) *JSONResponseBuilder {
	b := ErrorResponse(http.StatusBadRequest, CodeValidation, "validation failed")
	b.body.Errors = v.Fields
	return b
}

// ErrorFrom maps a service error onto the response taxonomy. Internal
// details are never sent to the client.
func ErrorFrom(err error) *JSONResponseBuilder {
	var validation *core.ValidationError
	var partial *core.PartialWriteError
	switch {
	case errors.As(err, &validation):
		return ValidationErrorResponse(validation)
	case errors.As(err, &partial):
		b := ErrorResponse(http.StatusInternalServerError, CodePartialWrite,
			"installment group was removed but could not be recreated; create the purchase again, purchaseId names the removed group")
		b.body.PurchaseID = partial.PurchaseID
		return b
	case errors.Is(err, core.ErrValidation):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, core.ErrUnauthorized):
		return UnauthorizedError("not authorized")
	case errors.Is(err, core.ErrForbidden):
		return ErrorResponse(http.StatusForbidden, CodeForbidden, "forbidden")
	case errors.Is(err, core.ErrConflict):
		return ErrorResponse(http.StatusConflict, CodeConflict, "already exists")
	default:
		return InternalServerError("internal server error")
	}
}
