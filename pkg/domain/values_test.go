package domain_test

import (
	"testing"
	"time"

	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCompareValues(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same-kind comparisons
	assert.Negative(t, domain.CompareValues(1, 2))
	assert.Positive(t, domain.CompareValues(2.5, 2))
	assert.Zero(t, domain.CompareValues(int64(3), float64(3)))
	assert.Negative(t, domain.CompareValues("apple", "banana"))
	assert.Negative(t, domain.CompareValues(earlier, later))
	assert.Zero(t, domain.CompareValues(earlier, earlier))
	assert.Negative(t, domain.CompareValues(false, true))

	// Cross-kind ordering is total: nil < bool < number < string < time
	assert.Negative(t, domain.CompareValues(nil, false))
	assert.Negative(t, domain.CompareValues(true, 0))
	assert.Negative(t, domain.CompareValues(99, "a"))
	assert.Negative(t, domain.CompareValues("z", earlier))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, domain.ValuesEqual(nil, nil))
	assert.False(t, domain.ValuesEqual(nil, 0))
	assert.True(t, domain.ValuesEqual(3, 3.0))
	assert.True(t, domain.ValuesEqual("a", "a"))
	assert.False(t, domain.ValuesEqual("a", "A"))
}

func TestDocumentClone(t *testing.T) {
	doc := domain.Document{"_id": "1", "name": "Alice"}
	clone := doc.Clone()
	clone["name"] = "Bob"

	assert.Equal(t, "Alice", doc["name"])
	assert.Equal(t, "1", clone.ID())
}

func TestCanonicalName(t *testing.T) {
	def := domain.IndexDef{Fields: []domain.IndexField{
		{Name: "customerId"},
		{Name: "orderDate", Desc: true},
	}}
	assert.Equal(t, "customerId_1_orderDate_-1", def.CanonicalName())
}

func TestPredicateMatches(t *testing.T) {
	eq := domain.Predicate{Eq: "admin"}
	assert.True(t, eq.Matches("admin"))
	assert.False(t, eq.Matches("user"))

	rng := domain.Predicate{Min: 18, Max: 65}
	assert.True(t, rng.Matches(30))
	assert.True(t, rng.Matches(18))
	assert.False(t, rng.Matches(17))
	assert.False(t, rng.Matches(66))

	assert.True(t, rng.IsRange())
	assert.False(t, rng.IsEquality())
	assert.True(t, eq.IsEquality())
}
