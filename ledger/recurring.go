package ledger

import (
	"github.com/robinvdvleuten/expenses/expense"
)

// CategoryTemplates groups the templates declared under one category.
type CategoryTemplates struct {
	Category  string
	Templates []expense.Template
}

// Registry stores recurring templates by category, in the order categories were
// first declared. It is independent of the record store.
type Registry struct {
	order     []string
	templates map[string][]expense.Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string][]expense.Template),
	}
}

// Declare appends t under t.Category.
func (r *Registry) Declare(t expense.Template) {
	if _, ok := r.templates[t.Category]; !ok {
		r.order = append(r.order, t.Category)
	}
	r.templates[t.Category] = append(r.templates[t.Category], t)
}

// AllByCategory returns every category with its templates in declaration order.
func (r *Registry) AllByCategory() []CategoryTemplates {
	out := make([]CategoryTemplates, 0, len(r.order))
	for _, category := range r.order {
		templates := r.templates[category]
		out = append(out, CategoryTemplates{
			Category:  category,
			Templates: append([]expense.Template(nil), templates...),
		})
	}
	return out
}

// Len returns the number of declared templates across all categories.
func (r *Registry) Len() int {
	n := 0
	for _, templates := range r.templates {
		n += len(templates)
	}
	return n
}

// Reset removes all templates.
func (r *Registry) Reset() {
	r.order = r.order[:0]
	clear(r.templates)
}
