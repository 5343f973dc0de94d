package indexing_test

import (
	"testing"
	"time"

	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/indexing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCost struct {
	collection string
	index      string
	entries    int
}

type fakeRecorder struct {
	records []recordedCost
}

func (r *fakeRecorder) Record(collection, index string, entriesWritten int) {
	r.records = append(r.records, recordedCost{collection, index, entriesWritten})
}

func (r *fakeRecorder) total(index string) int {
	sum := 0
	for _, rec := range r.records {
		if rec.index == index {
			sum += rec.entries
		}
	}
	return sum
}

func shape(names ...string) domain.IndexDef {
	def := domain.IndexDef{}
	for _, n := range names {
		def.Fields = append(def.Fields, domain.IndexField{Name: n})
	}
	return def
}

func TestCreateIndexValidation(t *testing.T) {
	m := indexing.NewManager(nil)

	// Empty shape
	_, err := m.CreateIndex("users", nil, domain.IndexDef{})
	assert.Error(t, err)

	// Repeated field
	_, err = m.CreateIndex("users", nil, shape("name", "name"))
	assert.Error(t, err)

	// Valid shape, then duplicate canonical name
	name, err := m.CreateIndex("users", nil, shape("name"))
	require.NoError(t, err)
	assert.Equal(t, "name_1", name)

	_, err = m.CreateIndex("users", nil, shape("name"))
	var dup *domain.DuplicateIndexNameError
	assert.ErrorAs(t, err, &dup)
}

func TestCreateIndexTTLValidation(t *testing.T) {
	m := indexing.NewManager(nil)

	// TTL on a compound shape is rejected
	def := shape("createdAt", "name")
	def.ExpireAfter = time.Hour
	_, err := m.CreateIndex("events", nil, def)
	var invalid *domain.InvalidTTLFieldError
	assert.ErrorAs(t, err, &invalid)

	// TTL over a non-date field is rejected
	docs := map[string]domain.Document{
		"1": {"_id": "1", "createdAt": "not a date"},
	}
	def = shape("createdAt")
	def.ExpireAfter = time.Hour
	_, err = m.CreateIndex("events", docs, def)
	assert.ErrorAs(t, err, &invalid)

	// TTL over a date field is accepted
	docs = map[string]domain.Document{
		"1": {"_id": "1", "createdAt": time.Now()},
	}
	_, err = m.CreateIndex("events", docs, def)
	assert.NoError(t, err)
}

func TestCreateIndexRejectsTwoArrayFields(t *testing.T) {
	m := indexing.NewManager(nil)

	docs := map[string]domain.Document{
		"1": {"_id": "1", "items": []interface{}{"a"}, "tags": []interface{}{"x", "y"}},
	}

	// A multi-key index on one array field is fine
	_, err := m.CreateIndex("orders", docs, shape("items"))
	require.NoError(t, err)

	// Composing two array fields into one index is rejected
	_, err = m.CreateIndex("orders", docs, shape("items", "tags"))
	var multi *domain.MultiArrayIndexError
	assert.ErrorAs(t, err, &multi)
}

func TestMultiKeyExpansion(t *testing.T) {
	rec := &fakeRecorder{}
	m := indexing.NewManager(rec)

	_, err := m.CreateIndex("orders", nil, shape("items"))
	require.NoError(t, err)

	doc := domain.Document{"_id": "1", "items": []interface{}{"a", "b", "c"}}
	require.NoError(t, m.OnInsert("orders", "1", doc))

	infos := m.ListForCollection("orders")
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].Entries, "array of length 3 produces 3 entries")
	assert.Equal(t, domain.IndexMultiKey, infos[0].Kind)
	assert.Equal(t, 3, rec.total("items_1"))

	// Deleting the document removes exactly those 3 entries
	m.OnDelete("orders", "1", doc)
	infos = m.ListForCollection("orders")
	assert.Equal(t, 0, infos[0].Entries)
	assert.Equal(t, 6, rec.total("items_1"), "removals count as index writes too")
}

func TestOnInsertRejectsTwoArraysInOneDocument(t *testing.T) {
	m := indexing.NewManager(nil)

	// Shape accepted against an empty collection
	_, err := m.CreateIndex("orders", nil, shape("items", "tags"))
	require.NoError(t, err)

	doc := domain.Document{
		"_id":   "1",
		"items": []interface{}{"a"},
		"tags":  []interface{}{"x"},
	}
	err = m.OnInsert("orders", "1", doc)
	var multi *domain.MultiArrayIndexError
	assert.ErrorAs(t, err, &multi)

	// Nothing was partially indexed
	infos := m.ListForCollection("orders")
	assert.Equal(t, 0, infos[0].Entries)
}

func TestOnUpdateTouchesOnlyAffectedIndexes(t *testing.T) {
	rec := &fakeRecorder{}
	m := indexing.NewManager(rec)

	docs := map[string]domain.Document{}
	_, err := m.CreateIndex("users", docs, shape("name"))
	require.NoError(t, err)
	_, err = m.CreateIndex("users", docs, shape("city"))
	require.NoError(t, err)

	oldDoc := domain.Document{"_id": "1", "name": "Alice", "city": "Boston"}
	require.NoError(t, m.OnInsert("users", "1", oldDoc))
	before := rec.total("city_1")

	newDoc := domain.Document{"_id": "1", "name": "Alicia", "city": "Boston"}
	require.NoError(t, m.OnUpdate("users", "1", oldDoc, newDoc, []string{"name"}))

	assert.Equal(t, before, rec.total("city_1"), "untouched index pays no write cost")
	assert.Equal(t, 3, rec.total("name_1"), "insert + remove-old + add-new")
}

func TestLookupLeftmostPrefix(t *testing.T) {
	m := indexing.NewManager(nil)
	_, err := m.CreateIndex("orders", nil, shape("a", "b", "c"))
	require.NoError(t, err)

	// Only b constrained: no usable prefix
	matches := m.Lookup("orders", map[string]domain.Predicate{"b": {Eq: 1}})
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].EqPrefix)
	assert.False(t, matches[0].Range)

	// a and b equality-constrained
	matches = m.Lookup("orders", map[string]domain.Predicate{
		"a": {Eq: 1},
		"b": {Eq: 2},
	})
	assert.Equal(t, 2, matches[0].EqPrefix)

	// Range on b usable because a is equality-constrained
	matches = m.Lookup("orders", map[string]domain.Predicate{
		"a": {Eq: 1},
		"b": {Min: 0},
	})
	assert.Equal(t, 1, matches[0].EqPrefix)
	assert.True(t, matches[0].Range)

	// Range on b alone is not usable
	matches = m.Lookup("orders", map[string]domain.Predicate{"b": {Min: 0}})
	assert.Equal(t, 0, matches[0].EqPrefix)
	assert.False(t, matches[0].Range)
}

func TestCandidatesOrderAndRange(t *testing.T) {
	m := indexing.NewManager(nil)

	docs := map[string]domain.Document{
		"1": {"_id": "1", "customer": "acme", "total": 10},
		"2": {"_id": "2", "customer": "acme", "total": 30},
		"3": {"_id": "3", "customer": "acme", "total": 20},
		"4": {"_id": "4", "customer": "zeta", "total": 5},
	}
	_, err := m.CreateIndex("orders", docs, shape("customer", "total"))
	require.NoError(t, err)

	ids, ok := m.Candidates("orders", "customer_1_total_1", map[string]domain.Predicate{
		"customer": {Eq: "acme"},
	})
	require.True(t, ok)
	assert.Equal(t, []string{"1", "3", "2"}, ids, "candidates come back in index order")

	ids, ok = m.Candidates("orders", "customer_1_total_1", map[string]domain.Predicate{
		"customer": {Eq: "acme"},
		"total":    {Min: 15, Max: 25},
	})
	require.True(t, ok)
	assert.Equal(t, []string{"3"}, ids)
}

func TestIndexedValuesLimitedToMatchingEntries(t *testing.T) {
	m := indexing.NewManager(nil)

	docs := map[string]domain.Document{
		"1": {"_id": "1", "customer": "acme", "total": 10},
		"2": {"_id": "2", "customer": "acme", "total": 30},
		"3": {"_id": "3", "customer": "zeta", "total": 5},
	}
	_, err := m.CreateIndex("orders", docs, shape("customer", "total"))
	require.NoError(t, err)

	values, ids, ok := m.IndexedValues("orders", "customer_1_total_1", map[string]domain.Predicate{
		"customer": {Eq: "acme"},
	})
	require.True(t, ok)

	assert.Equal(t, []string{"1", "2"}, ids, "index order")
	assert.Len(t, values, 2, "only the selected entries are materialized")
	assert.Equal(t, domain.Document{"customer": "acme", "total": 10}, values["1"])
	assert.NotContains(t, values, "3")
}

func TestRedundantIndexFlagged(t *testing.T) {
	m := indexing.NewManager(nil)

	_, err := m.CreateIndex("users", nil, shape("name"))
	require.NoError(t, err)
	_, err = m.CreateIndex("users", nil, shape("name", "city"))
	require.NoError(t, err)

	infos := m.ListForCollection("users")
	require.Len(t, infos, 2)
	assert.False(t, infos[0].Redundant)
	assert.True(t, infos[1].Redundant, "overlapping shape is flagged, never merged")
}

func TestExpired(t *testing.T) {
	m := indexing.NewManager(nil)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	docs := map[string]domain.Document{
		"old":    {"_id": "old", "createdAt": now.Add(-2 * time.Hour)},
		"fresh":  {"_id": "fresh", "createdAt": now.Add(-10 * time.Minute)},
		"nodate": {"_id": "nodate"},
	}
	def := shape("createdAt")
	def.ExpireAfter = time.Hour
	_, err := m.CreateIndex("sessions", docs, def)
	require.NoError(t, err)

	expired := m.Expired("sessions", now)
	assert.Equal(t, []string{"old"}, expired)

	// Exactly at the expiry boundary counts as expired
	expired = m.Expired("sessions", now.Add(-time.Hour).Add(2*time.Hour))
	assert.Contains(t, expired, "old")
}

func TestDropIndex(t *testing.T) {
	m := indexing.NewManager(nil)
	name, err := m.CreateIndex("users", nil, shape("name"))
	require.NoError(t, err)

	v1 := m.Version("users")
	require.NoError(t, m.DropIndex("users", name))
	assert.Empty(t, m.ListForCollection("users"))
	assert.Greater(t, m.Version("users"), v1, "drop bumps the catalog version")

	assert.Error(t, m.DropIndex("users", name))
	assert.Error(t, m.DropIndex("nonexistent", "name_1"))
}
