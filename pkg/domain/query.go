package domain

// Predicate constrains a single field in a query filter. Either Eq is
// set (equality) or Min/Max bound a range; an all-nil predicate matches
// any document that has the field.
type Predicate struct {
	Eq  interface{} `json:"eq,omitempty"`
	Min interface{} `json:"min,omitempty"`
	Max interface{} `json:"max,omitempty"`
}

// IsEquality reports whether the predicate pins the field to one value.
func (p Predicate) IsEquality() bool { return p.Eq != nil }

// IsRange reports whether the predicate bounds the field.
func (p Predicate) IsRange() bool { return p.Eq == nil && (p.Min != nil || p.Max != nil) }

// Matches evaluates the predicate against a field value.
func (p Predicate) Matches(v interface{}) bool {
	if p.Eq != nil {
		return ValuesEqual(v, p.Eq)
	}
	if p.Min != nil && CompareValues(v, p.Min) < 0 {
		return false
	}
	if p.Max != nil && CompareValues(v, p.Max) > 0 {
		return false
	}
	return true
}

// QueryRequest is a single filter/sort/projection request. Transient,
// never persisted.
type QueryRequest struct {
	Filter     map[string]Predicate `json:"filter,omitempty"`
	Sort       []IndexField         `json:"sort,omitempty"`
	Projection []string             `json:"projection,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
}

// Plan describes how a query will be executed. Produced per query by the
// planner; purely descriptive, never mutates state.
type Plan struct {
	// Index is the canonical name of the chosen index; empty means a full
	// collection scan.
	Index         string   `json:"index,omitempty"`
	FullScan      bool     `json:"full_scan"`
	Covered       bool     `json:"covered"`
	InMemorySort  bool     `json:"in_memory_sort"`
	MatchedFields []string `json:"matched_fields,omitempty"`
	EstimatedCost int      `json:"estimated_cost"`
}
