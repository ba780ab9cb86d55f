package repository

import "strings"

// Pageable is a zero-based page request with an optional sort.
type Pageable struct {
	Page int
	Size int
	Sort []Order
}

type Order struct {
	Column string
	Desc   bool
}

func (p Pageable) Offset() int {
	return p.Page * p.Size
}

// OrderClause renders the sort as SQL, falling back to def when empty.
// Columns must already be whitelisted by the caller.
func (p Pageable) OrderClause(def string) string {
	if len(p.Sort) == 0 {
		return def
	}
	parts := make([]string, 0, len(p.Sort))
	for _, o := range p.Sort {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, o.Column+" "+dir)
	}
	return strings.Join(parts, ", ")
}
