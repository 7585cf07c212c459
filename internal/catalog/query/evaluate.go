// Package query evaluates catalog queries against in-memory records.
package query

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// Apply filters, sorts and pages items according to q.
// It returns the requested page and the number of matches before paging.
func Apply[T domain.Resource[T]](items []T, q domain.Query, sortable []string) ([]T, int, error) {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if !matchKeyword(item.ResourceName(), q.Keyword) {
			continue
		}
		fields := item.Fields()
		if !MatchAll(fields, q.Filter) || !MatchAny(fields, q.FilterOr) {
			continue
		}
		matched = append(matched, item)
	}

	if q.Sort != nil && q.Sort.Key != "" {
		if !slices.Contains(sortable, q.Sort.Key) {
			return nil, 0, &domain.InvalidSortKeyError{Key: q.Sort.Key}
		}
		key, desc := q.Sort.Key, q.Sort.Desc
		slices.SortStableFunc(matched, func(a, b T) int {
			c := Compare(a.Fields()[key], b.Fields()[key])
			if desc {
				return -c
			}
			return c
		})
	}

	return Paginate(matched, q.Page), len(matched), nil
}

// Paginate returns the 1-based window [start-1, start-1+limit) of items.
// A nil page returns items unchanged; a zero limit keeps everything from start.
func Paginate[T any](items []T, page *domain.Page) []T {
	if page == nil {
		return items
	}
	start := max(page.Start, 1) - 1
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(items))
	}
	return items[start:end]
}

// Stat groups the items matching q.Filter by q.GroupBy.
func Stat[T domain.Resource[T]](items []T, q domain.StatQuery) ([]domain.StatResult, error) {
	if q.GroupBy == "" {
		return nil, &domain.InvalidArgumentError{Key: "group_by", Reason: "required"}
	}
	var results []domain.StatResult
	for _, item := range items {
		fields := item.Fields()
		if !MatchAll(fields, q.Filter) {
			continue
		}
		value := fields[q.GroupBy]
		idx := slices.IndexFunc(results, func(r domain.StatResult) bool { return Compare(r.Value, value) == 0 })
		if idx < 0 {
			results = append(results, domain.StatResult{Value: value, Count: 1})
			continue
		}
		results[idx].Count++
	}
	slices.SortStableFunc(results, func(a, b domain.StatResult) int { return Compare(a.Value, b.Value) })
	return results, nil
}

// MatchAll reports whether fields satisfy every condition.
func MatchAll(fields map[string]any, conditions []domain.Condition) bool {
	for _, c := range conditions {
		if !Match(fields, c) {
			return false
		}
	}
	return true
}

// MatchAny reports whether fields satisfy at least one condition.
// An empty condition list matches everything.
func MatchAny(fields map[string]any, conditions []domain.Condition) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, c := range conditions {
		if Match(fields, c) {
			return true
		}
	}
	return false
}

// Match evaluates a single condition. List-valued fields match when any
// element satisfies the comparison.
func Match(fields map[string]any, c domain.Condition) bool {
	value, present := fields[c.Key]

	switch c.Operator {
	case domain.OpExists:
		want, _ := c.Value.(bool)
		return (present && !isEmpty(value)) == want
	case domain.OpNot:
		return !anyElement(value, func(v any) bool { return Compare(v, c.Value) == 0 })
	case domain.OpIn:
		return anyElement(value, func(v any) bool { return containsValue(c.Value, v) })
	case domain.OpNotIn:
		return !anyElement(value, func(v any) bool { return containsValue(c.Value, v) })
	case domain.OpContain:
		return anyElement(value, func(v any) bool { return containsFold(v, c.Value) })
	case domain.OpNotContain:
		return !anyElement(value, func(v any) bool { return containsFold(v, c.Value) })
	case domain.OpGt:
		return anyElement(value, func(v any) bool { return Compare(v, c.Value) > 0 })
	case domain.OpGte:
		return anyElement(value, func(v any) bool { return Compare(v, c.Value) >= 0 })
	case domain.OpLt:
		return anyElement(value, func(v any) bool { return Compare(v, c.Value) < 0 })
	case domain.OpLte:
		return anyElement(value, func(v any) bool { return Compare(v, c.Value) <= 0 })
	default:
		return anyElement(value, func(v any) bool { return Compare(v, c.Value) == 0 })
	}
}

// Compare orders two field values. nil sorts first; numbers compare
// numerically, times chronologically and everything else as strings.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func matchKeyword(name, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(keyword))
}

func anyElement(value any, fn func(any) bool) bool {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		for i := range rv.Len() {
			if fn(rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return fn(value)
}

func containsValue(list, value any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice {
		return Compare(list, value) == 0
	}
	for i := range rv.Len() {
		if Compare(rv.Index(i).Interface(), value) == 0 {
			return true
		}
	}
	return false
}

func containsFold(value, substr any) bool {
	if value == nil || substr == nil {
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprint(value)), strings.ToLower(fmt.Sprint(substr)))
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
