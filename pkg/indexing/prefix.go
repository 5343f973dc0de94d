package indexing

import "github.com/rcastelli/plandb/pkg/domain"

// PrefixMatch describes how well a filter lines up with one index under
// the leftmost-prefix rule.
type PrefixMatch struct {
	Index string `json:"index"`
	// EqPrefix is the number of leading index fields constrained by
	// equality predicates, in index field order.
	EqPrefix int `json:"eq_prefix"`
	// Range reports whether the field immediately after the equality
	// prefix is constrained by a range predicate. A range predicate is
	// only usable when every preceding field is equality-constrained.
	Range bool `json:"range"`
}

// MatchPrefix computes the leftmost-prefix match of a filter against an
// index field order. Shared by Manager.Lookup and the query planner so
// both apply the same rule.
func MatchPrefix(fields []domain.IndexField, filter map[string]domain.Predicate) (eqPrefix int, withRange bool) {
	for _, f := range fields {
		pred, ok := filter[f.Name]
		if !ok {
			break
		}
		if pred.IsEquality() {
			eqPrefix++
			continue
		}
		if pred.IsRange() {
			withRange = true
		}
		break
	}
	return eqPrefix, withRange
}
