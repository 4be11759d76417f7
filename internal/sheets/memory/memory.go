package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spendlens/internal/core"
	ports "spendlens/internal/sheets"
)

var (
	_ ports.RecordWriter   = (*Store)(nil)
	_ ports.RecordLister   = (*Store)(nil)
	_ ports.ExpenseDeleter = (*Store)(nil)
	_ ports.TaxonomyReader = (*Store)(nil)
	_ ports.TaxonomyWriter = (*Store)(nil)
)

// Store keeps records and taxonomy in process memory.
type Store struct {
	mu         sync.Mutex
	records    []core.Record
	people     []core.Person
	stores     []core.Store
	categories []core.Category
}

func New(tax core.Taxonomy) *Store {
	s := &Store{}
	for _, p := range tax.People {
		_ = s.addPerson(p)
	}
	for _, st := range tax.Stores {
		_ = s.addStore(st)
	}
	for _, c := range tax.Categories {
		_ = s.addCategory(c)
	}
	return s
}

// NewFromFiles seeds the taxonomy from seed_people.txt, seed_stores.txt
// ("Store;Category;Sub") and seed_categories.txt ("Category > Sub") under
// base. Missing files fall back to a small default set.
func NewFromFiles(base string) *Store {
	var tax core.Taxonomy
	for _, line := range readLines(filepath.Join(base, "seed_people.txt")) {
		tax.People = append(tax.People, core.Person{Name: line})
	}
	for _, line := range readLines(filepath.Join(base, "seed_stores.txt")) {
		parts := strings.Split(line, ";")
		st := core.Store{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			st.DefaultCategory = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			st.DefaultSubCategory = strings.TrimSpace(parts[2])
		}
		tax.Stores = append(tax.Stores, st)
	}
	for _, line := range readLines(filepath.Join(base, "seed_categories.txt")) {
		cat, sub, _ := strings.Cut(line, ">")
		c := core.Category{Name: strings.TrimSpace(cat)}
		if sub = strings.TrimSpace(sub); sub != "" {
			c.SubCategories = []string{sub}
		}
		tax.Categories = append(tax.Categories, c)
	}
	if len(tax.Categories) == 0 {
		tax.Categories = []core.Category{
			{Name: "Groceries", SubCategories: []string{"Food", "Drinks"}},
			{Name: "Household", SubCategories: []string{"Cleaning"}},
			{Name: "Transport", SubCategories: []string{"Fuel", "Public"}},
		}
	}
	return New(tax)
}

func (s *Store) ReplaceExpense(_ context.Context, expenseID string, recs []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeExpense(expenseID)
	s.records = append(s.records, recs...)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, expenseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeExpense(expenseID), nil
}

func (s *Store) removeExpense(expenseID string) int {
	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.ExpenseID == expenseID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed
}

func (s *Store) ListRecords(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.records...), nil
}

func (s *Store) ExpenseRecords(_ context.Context, expenseID string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, r := range s.records {
		if r.ExpenseID == expenseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Taxonomy(_ context.Context) (core.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tax := core.Taxonomy{
		People:     append([]core.Person(nil), s.people...),
		Stores:     append([]core.Store(nil), s.stores...),
		Categories: make([]core.Category, len(s.categories)),
	}
	for i, c := range s.categories {
		tax.Categories[i] = core.Category{Name: c.Name, SubCategories: append([]string(nil), c.SubCategories...)}
	}
	return tax, nil
}

func (s *Store) AddPerson(_ context.Context, p core.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPerson(p)
}

func (s *Store) AddStore(_ context.Context, st core.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addStore(st)
}

func (s *Store) AddCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategory(c)
}

func (s *Store) addPerson(p core.Person) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return core.ErrEmptyName
	}
	for _, existing := range s.people {
		if existing.Name == p.Name {
			return nil
		}
	}
	s.people = append(s.people, p)
	return nil
}

func (s *Store) addStore(st core.Store) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return core.ErrEmptyName
	}
	for i, existing := range s.stores {
		if existing.Name == st.Name {
			s.stores[i] = st
			return nil
		}
	}
	s.stores = append(s.stores, st)
	return nil
}

func (s *Store) addCategory(c core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return core.ErrEmptyName
	}
	subs := dedupe(c.SubCategories)
	for i, existing := range s.categories {
		if existing.Name == c.Name {
			s.categories[i].SubCategories = dedupe(append(existing.SubCategories, subs...))
			return nil
		}
	}
	s.categories = append(s.categories, core.Category{Name: c.Name, SubCategories: subs})
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// dedupe drops blanks and repeats, keeping input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
