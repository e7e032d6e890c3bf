package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderBy builds an ORDER BY clause out of `orderings`, keeping only the `allowed` fields.
// `def` is used when nothing is left.
func OrderBy(orderings []DBOrdering, def string, allowed ...string) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		for _, f := range allowed {
			if ord.Field == f {
				clauses = append(clauses, ord.String())
				break
			}
		}
	}
	if len(clauses) == 0 {
		return def
	}
	return strings.Join(clauses, ", ")
}
