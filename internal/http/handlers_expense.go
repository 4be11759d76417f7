package http

import (
	"net/http"

	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/services"
)

type lineResponse struct {
	Category    string     `json:"category"`
	SubCategory string     `json:"sub_category"`
	Amount      core.Money `json:"amount"`
}

type expenseResponse struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Person    string         `json:"person"`
	Store     string         `json:"store"`
	Total     core.Money     `json:"total"`
	CreatedAt string         `json:"created_at"`
	Lines     []lineResponse `json:"lines"`
}

func newExpenseResponse(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:        e.ID,
		Date:      e.Date.String(),
		Person:    e.Person,
		Store:     e.Store,
		Total:     e.Total,
		CreatedAt: e.CreatedAt,
		Lines:     make([]lineResponse, 0, len(e.Lines)),
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			Category:    l.Category,
			SubCategory: l.SubCategory,
			Amount:      l.Amount,
		})
	}
	return resp
}

// expenseInput decodes the body and strips control characters from the
// free-text fields.
func expenseInput(w http.ResponseWriter, r *http.Request) (services.ExpenseInput, error) {
	var in services.ExpenseInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return in, err
	}
	in.Person = sanitizeInput(in.Person)
	in.Store = sanitizeInput(in.Store)
	for i := range in.Lines {
		in.Lines[i].Category = sanitizeInput(in.Lines[i].Category)
		in.Lines[i].SubCategory = sanitizeInput(in.Lines[i].SubCategory)
	}
	return in, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := expenseInput(w, r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}

	e, err := s.expenses.Create(r.Context(), in)
	if err != nil {
		s.logWriteFailure(r, err, applog.OpCreate, "")
		errorFor(r, err).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		JSON(newExpenseResponse(e)).
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	recs, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(map[string]any{
		"id":      id,
		"records": recs,
	}).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, err := expenseInput(w, r)
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}

	e, err := s.expenses.Update(r.Context(), id, in)
	if err != nil {
		s.logWriteFailure(r, err, applog.OpUpdate, id)
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(newExpenseResponse(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		s.logWriteFailure(r, err, applog.OpDelete, id)
		errorFor(r, err).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logWriteFailure records rejected writes at warn level. Internal
// failures are logged by errorFor.
func (s *Server) logWriteFailure(r *http.Request, err error, op, id string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return
	}
	errorType := applog.ErrorTypeValidation
	if status == http.StatusNotFound {
		errorType = applog.ErrorTypeNotFound
	}
	fields := applog.NewFields().
		WithOperation(op).
		WithError(err, errorType)
	if id != "" {
		fields.WithExpense(id, "", 0)
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Expense write rejected", fields.ToSlice()...)
}
