package igdb

import (
	"strconv"
	"strings"
)

// Query is a compiled request in the service's text query language.
type Query struct {
	Endpoint string
	Fields   []string

	// Where holds conditions joined with "&".
	Where []string

	Limit  int
	Offset int

	SortField string
	SortDesc  bool

	// Impossible marks a query that can match nothing, for example a
	// platform filter whose values have no external equivalent. Such
	// queries are never sent.
	Impossible bool
}

// String renders the query body, e.g.
//
//	fields id,name; where platforms = (48,55) & version_parent = null; limit 10; offset 0; sort id desc;
func (q *Query) String() string {
	var b strings.Builder

	b.WriteString("fields ")
	if len(q.Fields) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.Fields, ","))
	}
	b.WriteString(";")

	if len(q.Where) > 0 {
		b.WriteString(" where ")
		b.WriteString(strings.Join(q.Where, " & "))
		b.WriteString(";")
	}

	b.WriteString(" limit ")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString("; offset ")
	b.WriteString(strconv.Itoa(q.Offset))
	b.WriteString(";")

	if q.SortField != "" {
		b.WriteString(" sort ")
		b.WriteString(q.SortField)
		if q.SortDesc {
			b.WriteString(" desc;")
		} else {
			b.WriteString(" asc;")
		}
	}
	return b.String()
}
