package gerrit

import "strings"

// querySeparator joins search terms in the q= parameter. Gerrit reads it as
// a space, so "a:1+b:2" means both terms must match.
const querySeparator = "+"

// Query is an ordered list of raw search terms such as "topic:foo" or
// "status:open".
type Query struct {
	terms []string
}

// NewQuery returns a query holding terms in the given order.
func NewQuery(terms ...string) *Query {
	q := &Query{}
	for _, t := range terms {
		q.Add(t)
	}
	return q
}

// Add appends a term. Terms are not validated, so a malformed term like
// "x=y" is sent to Gerrit as is.
func (q *Query) Add(term string) *Query {
	q.terms = append(q.terms, term)
	return q
}

// Terms returns a copy of the terms.
func (q *Query) Terms() []string {
	return append([]string(nil), q.terms...)
}

func (q *Query) String() string {
	return BuildQuery(q.terms)
}

// BuildQuery joins terms with "+". Trailing separators left by empty terms
// are removed, so the result never ends in "+".
func BuildQuery(terms []string) string {
	return strings.TrimRight(strings.Join(terms, querySeparator), querySeparator)
}
