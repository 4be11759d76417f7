package http

import (
	"net/http"

	"spendlens/internal/core"
)

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	tax, err := s.expenses.Taxonomy(r.Context())
	if err != nil {
		errorFor(r, err).Write(w)
		return
	}
	if tax.People == nil {
		tax.People = []core.Person{}
	}
	if tax.Stores == nil {
		tax.Stores = []core.Store{}
	}
	if tax.Categories == nil {
		tax.Categories = []core.Category{}
	}
	NewResponse().JSON(tax).Write(w)
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var p core.Person
	if err := DecodeJSON(w, r, &p); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	p.Name = sanitizeInput(p.Name)
	if err := s.expenses.AddPerson(r.Context(), p); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(p).Write(w)
}

// handleAddStore creates a store or replaces its defaults.
func (s *Server) handleAddStore(w http.ResponseWriter, r *http.Request) {
	var st core.Store
	if err := DecodeJSON(w, r, &st); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	st.Name = sanitizeInput(st.Name)
	st.DefaultCategory = sanitizeInput(st.DefaultCategory)
	st.DefaultSubCategory = sanitizeInput(st.DefaultSubCategory)
	if err := s.expenses.AddStore(r.Context(), st); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(st).Write(w)
}

// handleAddCategory creates a category or merges new sub-categories into
// an existing one.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := DecodeJSON(w, r, &c); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	c.Name = sanitizeInput(c.Name)
	subs := c.SubCategories[:0]
	for _, sub := range c.SubCategories {
		if sub = sanitizeInput(sub); sub != "" {
			subs = append(subs, sub)
		}
	}
	c.SubCategories = subs
	if err := s.expenses.AddCategory(r.Context(), c); err != nil {
		errorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(c).Write(w)
}
