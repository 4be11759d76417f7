// Package http provides the JSON API server and its handlers.
//
// This file implements parsing and validation of query strings and JSON
// request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"spendlens/internal/analytics"
	"spendlens/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxOverviewMonths bounds the months query of the overview.
const maxOverviewMonths = 120

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errBadRequest)
}

// DecodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// queryValue returns the trimmed, sanitized value of key.
func queryValue(q url.Values, key string) string {
	return sanitizeInput(q.Get(key))
}

// ParseAnalyticsQuery reads from, to, preset, mode, group, person and
// bucket. Blank values keep their defaults; unknown values are errors.
func ParseAnalyticsQuery(q url.Values) (services.Query, error) {
	query := services.Query{
		From:   queryValue(q, "from"),
		To:     queryValue(q, "to"),
		Person: queryValue(q, "person"),
	}

	if v := queryValue(q, "preset"); v != "" {
		p := analytics.Preset(strings.ToLower(v))
		if !slices.Contains(analytics.Presets, p) {
			return services.Query{}, badRequest("unknown preset %q", v)
		}
		query.Preset = p
	}
	if v := queryValue(q, "mode"); v != "" {
		m, err := analytics.ParseBucketMode(v)
		if err != nil {
			return services.Query{}, fmt.Errorf("%v: %w", err, errBadRequest)
		}
		query.Mode = m
	}
	if v := queryValue(q, "group"); v != "" {
		g, err := analytics.ParseGrouping(v)
		if err != nil {
			return services.Query{}, fmt.Errorf("%v: %w", err, errBadRequest)
		}
		query.Group = g
	}
	if v := queryValue(q, "bucket"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return services.Query{}, badRequest("bucket must be an integer, got %q", v)
		}
		query.Bucket = &n
	}
	return query, nil
}

// ParseMonths reads the months query of the overview. Blank means the
// default.
func ParseMonths(q url.Values) (int, error) {
	v := queryValue(q, "months")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxOverviewMonths {
		return 0, badRequest("months must be between 1 and %d, got %q", maxOverviewMonths, v)
	}
	return n, nil
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
