// Package http provides the JSON API server and its handlers.
//
// This file implements a small builder for JSON and text responses and the
// mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/services"
)

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	payload     any
	text        string
	contentType string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the response body, encoded on Write.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.contentType = "application/json; charset=utf-8"
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.text = s
	b.payload = nil
	b.contentType = "text/plain; charset=utf-8"
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.contentType != "" {
		w.Header().Set("Content-Type", b.contentType)
	}
	w.WriteHeader(b.statusCode)

	switch {
	case b.payload != nil:
		if err := json.NewEncoder(w).Encode(b.payload); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	case b.text != "":
		_, _ = w.Write([]byte(b.text))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// TooManyRequestsError is written by the rate limiter.
func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidTotal,
	core.ErrNoLines,
	core.ErrEmptyCategory,
	core.ErrEmptyName,
	core.ErrBreakdownMismatch,
	services.ErrInvalidBucket,
	errBadRequest,
}

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, core.ErrExpenseNotFound) {
		return http.StatusNotFound
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// errorFor builds the response for err. Internal errors are logged and
// their text withheld from the client.
func errorFor(r *http.Request, err error) *ResponseBuilder {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ctx := r.Context()
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed",
			err, applog.ErrorTypeInternal, r.Pattern,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
		return InternalServerError()
	}
	return ErrorResponse(status, err.Error())
}
