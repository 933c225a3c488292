package event

import (
	"fmt"
	"strings"
)

// Filter holds the optional event filters. Empty or "all" values are
// ignored; the rest are AND-combined.
type Filter struct {
	Ubicacion string // location name
	Categoria string // free-text category label
	Interes   string // topic name
}

// filterAll is the sentinel the UI sends for "no filter".
const filterAll = "all"

func (f Filter) ubicacionSet() bool { return f.Ubicacion != "" && f.Ubicacion != filterAll }
func (f Filter) categoriaSet() bool { return f.Categoria != "" && f.Categoria != filterAll }
func (f Filter) interesSet() bool   { return f.Interes != "" && f.Interes != filterAll }

// predicates returns the parameterized WHERE predicates and their
// arguments. Placeholders start at $1. Building predicates as a list
// instead of concatenating user input keeps the query parameterized
// for every filter combination.
func (f Filter) predicates() ([]string, []any) {
	var preds []string
	var args []any

	if f.ubicacionSet() {
		args = append(args, f.Ubicacion)
		preds = append(preds, fmt.Sprintf("u.nombre = $%d", len(args)))
	}
	if f.categoriaSet() {
		args = append(args, f.Categoria)
		preds = append(preds, fmt.Sprintf("e.category = $%d", len(args)))
	}
	if f.interesSet() {
		args = append(args, f.Interes)
		preds = append(preds, fmt.Sprintf("t.nombre = $%d", len(args)))
	}
	return preds, args
}

// whereClause renders the predicates as a SQL WHERE clause, or an
// empty string when no filter is set.
func (f Filter) whereClause() (string, []any) {
	preds, args := f.predicates()
	if len(preds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(preds, " AND "), args
}
