package domain

import "slices"

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNot        Operator = "not"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContain    Operator = "contain"
	OpNotContain Operator = "not_contain"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpExists     Operator = "exists"
)

// IsValid returns true if the operator is recognized. The empty operator means eq.
func (o Operator) IsValid() bool {
	switch o {
	case "", OpEq, OpNot, OpIn, OpNotIn, OpContain, OpNotContain, OpGt, OpGte, OpLt, OpLte, OpExists:
		return true
	default:
		return false
	}
}

// Condition is a single filter clause.
type Condition struct {
	Key      string   `json:"k"`
	Value    any      `json:"v"`
	Operator Operator `json:"o,omitempty"`
}

// Sort orders results by a single key.
type Sort struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc,omitempty"`
}

// Page is a 1-based offset/limit window. A zero Limit means no truncation.
type Page struct {
	Start int `json:"start,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Query is the generic list query accepted by every backend.
type Query struct {
	Filter   []Condition `json:"filter,omitempty"`
	FilterOr []Condition `json:"filter_or,omitempty"`
	Sort     *Sort       `json:"sort,omitempty"`
	Page     *Page       `json:"page,omitempty"`
	Keyword  string      `json:"keyword,omitempty"`
	Only     []string    `json:"only,omitempty"`
}

// WithoutPage returns a copy of q with its page removed, along with that page.
func (q Query) WithoutPage() (Query, *Page) {
	page := q.Page
	q.Page = nil
	return q, page
}

// WithoutKey returns a copy of q with every condition on key removed. When
// any FilterOr condition is on key the whole disjunction is dropped, since
// removing one alternative would narrow what the query matches.
func (q Query) WithoutKey(key string) Query {
	drop := func(c Condition) bool { return c.Key == key }
	q.Filter = slices.DeleteFunc(slices.Clone(q.Filter), drop)
	if slices.ContainsFunc(q.FilterOr, drop) {
		q.FilterOr = nil
	} else {
		q.FilterOr = slices.Clone(q.FilterOr)
	}
	return q
}

// WithFilter returns a copy of q with conditions appended to its filter.
func (q Query) WithFilter(conditions ...Condition) Query {
	q.Filter = append(slices.Clone(q.Filter), conditions...)
	return q
}

// StatQuery groups matching resources by a single field and counts them.
type StatQuery struct {
	Filter  []Condition `json:"filter,omitempty"`
	GroupBy string      `json:"group_by"`
}

// StatResult is one group of a stat query.
type StatResult struct {
	Value any `json:"value"`
	Count int `json:"count"`
}
