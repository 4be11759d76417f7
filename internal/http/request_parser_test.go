package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"spendlens/internal/analytics"
)

func TestParseAnalyticsQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		wantErr    bool
		wantPreset analytics.Preset
		wantMode   analytics.BucketMode
		wantGroup  analytics.Grouping
		wantBucket int
	}{
		{
			name:  "empty query keeps defaults",
			query: url.Values{},
		},
		{
			name: "all values provided",
			query: url.Values{
				"from":   {"01.03.2024"},
				"to":     {"31.03.2024"},
				"preset": {"This_Month"},
				"mode":   {"week_monday"},
				"group":  {"category"},
				"bucket": {"2"},
				"person": {"Alice"},
			},
			wantPreset: analytics.PresetThisMonth,
			wantMode:   analytics.ModeWeekMonday,
			wantGroup:  analytics.GroupCategory,
			wantBucket: 2,
		},
		{
			name:    "unknown preset",
			query:   url.Values{"preset": {"next_decade"}},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			query:   url.Values{"mode": {"fortnight"}},
			wantErr: true,
		},
		{
			name:    "unknown group",
			query:   url.Values{"group": {"colour"}},
			wantErr: true,
		},
		{
			name:    "non numeric bucket",
			query:   url.Values{"bucket": {"two"}},
			wantErr: true,
		},
		{
			name:  "blank values are ignored",
			query: url.Values{"preset": {"  "}, "mode": {""}, "bucket": {" "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseAnalyticsQuery(tt.query)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("expected errBadRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Preset != tt.wantPreset {
				t.Errorf("Preset = %q, want %q", q.Preset, tt.wantPreset)
			}
			if q.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", q.Mode, tt.wantMode)
			}
			if q.Group != tt.wantGroup {
				t.Errorf("Group = %q, want %q", q.Group, tt.wantGroup)
			}
			if tt.wantBucket != 0 {
				if q.Bucket == nil || *q.Bucket != tt.wantBucket {
					t.Errorf("Bucket = %v, want %d", q.Bucket, tt.wantBucket)
				}
			} else if q.Bucket != nil {
				t.Errorf("Bucket = %d, want nil", *q.Bucket)
			}
		})
	}
}

func TestParseAnalyticsQuery_TrimsFreeText(t *testing.T) {
	q, err := ParseAnalyticsQuery(url.Values{"person": {"  Bob\x00 "}, "from": {" 2024-03-01 "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Person != "Bob" {
		t.Errorf("Person = %q, want %q", q.Person, "Bob")
	}
	if q.From != "2024-03-01" {
		t.Errorf("From = %q, want %q", q.From, "2024-03-01")
	}
}

func TestParseMonths(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"1", 1, false},
		{"12", 12, false},
		{"120", 120, false},
		{"0", 0, true},
		{"121", 0, true},
		{"-3", 0, true},
		{"six", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMonths(url.Values{"months": {tt.input}})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonths(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMonths(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid object", `{"name":"Alice"}`, false},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"Alice","age":3}`, true},
		{"two objects", `{"name":"a"}{"name":"b"}`, true},
		{"empty body", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/people", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var p payload
			err := DecodeJSON(w, r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errBadRequest) {
				t.Errorf("expected errBadRequest, got %v", err)
			}
		})
	}
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/people", strings.NewReader(body))
	w := httptest.NewRecorder()
	var p struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(w, r, &p); !errors.Is(err, errBadRequest) {
		t.Fatalf("expected errBadRequest for oversized body, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"a\x00b", "ab"},
		{"tab\there", "tab\there"},
		{"\x07bell", "bell"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
