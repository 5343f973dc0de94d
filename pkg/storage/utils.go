package storage

import (
	"sort"

	"github.com/rcastelli/plandb/pkg/domain"
)

// MatchesFilter checks whether a document satisfies every predicate in
// the filter. A predicate against an array-valued field matches when any
// element matches, mirroring multi-key index semantics.
func MatchesFilter(doc domain.Document, filter map[string]domain.Predicate) bool {
	for field, pred := range filter {
		value, exists := doc[field]
		if !exists {
			return false
		}
		if arr, ok := domain.AsArray(value); ok {
			if !anyElementMatches(arr, pred) {
				return false
			}
			continue
		}
		if !pred.Matches(value) {
			return false
		}
	}
	return true
}

func anyElementMatches(arr []interface{}, pred domain.Predicate) bool {
	for _, el := range arr {
		if pred.Matches(el) {
			return true
		}
	}
	return false
}

// sortDocs orders documents in place by the sort spec, comparing field
// values with the same ordering the indexes use.
func sortDocs(docs []domain.Document, sortSpec []domain.IndexField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sortSpec {
			c := domain.CompareValues(docs[i][s.Name], docs[j][s.Name])
			if s.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// project reduces a document to the projected fields.
func project(doc domain.Document, fields []string) domain.Document {
	out := make(domain.Document, len(fields))
	for _, field := range fields {
		if value, exists := doc[field]; exists {
			out[field] = value
		}
	}
	return out
}
