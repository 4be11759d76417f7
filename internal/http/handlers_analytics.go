package http

import (
	"net/http"
	"strings"

	"spendlens/internal/core"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := ParseAnalyticsQuery(r.URL.Query())
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}

	res, err := s.analytics.Analyze(r.Context(), q)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}

	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.analytics.Records(r.Context(), queryValue(q, "from"), queryValue(q, "to"), queryValue(q, "person"))
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	if recs == nil {
		recs = []core.Record{}
	}
	NewResponse().JSON(map[string]any{
		"count":   len(recs),
		"records": recs,
	}).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	months, err := ParseMonths(r.URL.Query())
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	ov, err := s.analytics.Overview(r.Context(), months)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(ov).Write(w)
}

// handleSummary renders the text summary. It accepts the analytics
// query parameters.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := ParseAnalyticsQuery(r.URL.Query())
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	text, err := s.analytics.Summary(r.Context(), q)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	NewResponse().Text(text).Write(w)
}
