package indexing

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rcastelli/plandb/pkg/domain"
)

// CostRecorder receives the per-index entry counts written by index
// maintenance. Satisfied by accounting.Accountant.
type CostRecorder interface {
	Record(collection, index string, entriesWritten int)
}

// Manager owns the index catalogs of all collections and maintains them
// synchronously on every document mutation.
type Manager struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	costs    CostRecorder
}

// NewManager creates an index manager reporting maintenance costs to the
// given recorder.
func NewManager(costs CostRecorder) *Manager {
	return &Manager{
		catalogs: make(map[string]*Catalog),
		costs:    costs,
	}
}

func (m *Manager) catalog(collName string) *Catalog {
	cat, ok := m.catalogs[collName]
	if !ok {
		cat = newCatalog()
		m.catalogs[collName] = cat
	}
	return cat
}

// CreateIndex validates the shape, registers the index under its
// canonical name and performs the initial full build over the supplied
// documents. The build is not cancellable; a failed build leaves the
// catalog without the index.
func (m *Manager) CreateIndex(collName string, docs map[string]domain.Document, def domain.IndexDef) (string, error) {
	if len(def.Fields) == 0 {
		return "", fmt.Errorf("index shape must name at least one field")
	}
	seen := make(map[string]struct{}, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return "", fmt.Errorf("index shape contains an empty field name")
		}
		if _, dup := seen[f.Name]; dup {
			return "", fmt.Errorf("index shape repeats field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	name := def.CanonicalName()

	m.mu.Lock()
	defer m.mu.Unlock()

	cat := m.catalog(collName)
	if _, exists := cat.get(name); exists {
		return "", &domain.DuplicateIndexNameError{Name: name}
	}

	if def.ExpireAfter > 0 {
		if len(def.Fields) != 1 {
			return "", &domain.InvalidTTLFieldError{Index: name, Field: def.CanonicalName()}
		}
		field := def.Fields[0].Name
		for _, doc := range docs {
			v, present := doc[field]
			if !present {
				continue
			}
			if _, ok := domain.AsTime(v); !ok {
				return "", &domain.InvalidTTLFieldError{Index: name, Field: field}
			}
		}
	}

	// Reject shapes that would cover more than one array-valued field,
	// judged against the documents already in the collection.
	if len(def.Fields) > 1 {
		arrayFields := make(map[string]struct{})
		for _, doc := range docs {
			for _, f := range def.Fields {
				if _, ok := domain.AsArray(doc[f.Name]); ok {
					arrayFields[f.Name] = struct{}{}
				}
			}
		}
		if len(arrayFields) > 1 {
			names := make([]string, 0, len(arrayFields))
			for f := range arrayFields {
				names = append(names, f)
			}
			sort.Strings(names)
			return "", &domain.MultiArrayIndexError{Index: name, Fields: names}
		}
	}

	idx := newIndex(def, cat.nextSeq)

	// Initial full build. Stable ID order so rebuilds are deterministic.
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	built := 0
	for _, id := range ids {
		tuples, fromArray, err := idx.keyTuples(docs[id])
		if err != nil {
			return "", fmt.Errorf("building index %q: %w", name, err)
		}
		built += idx.addDoc(id, tuples, fromArray)
	}

	cat.nextSeq++
	cat.add(idx)
	cat.markRedundancy(idx)
	if idx.redundant {
		log.Printf("WARN: index %q on collection %q is redundant with an existing index", name, collName)
	}
	if m.costs != nil && built > 0 {
		m.costs.Record(collName, name, built)
	}
	log.Printf("INFO: created index %q on collection %q (%d entries)", name, collName, built)
	return name, nil
}

// DropIndex removes an index from the collection's catalog.
func (m *Manager) DropIndex(collName, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.catalogs[collName]
	if !ok || !cat.remove(name) {
		return fmt.Errorf("index %q does not exist on collection %q", name, collName)
	}
	log.Printf("INFO: dropped index %q from collection %q", name, collName)
	return nil
}

// OnInsert adds the document to every index. Key tuples for all indexes
// are computed before any index is touched, so a rejected document (two
// array fields under one index) leaves no partial entries behind.
func (m *Manager) OnInsert(collName, docID string, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil
	}

	type staged struct {
		idx       *Index
		tuples    [][]interface{}
		fromArray bool
	}
	stage := make([]staged, 0, len(cat.ordered))
	for _, idx := range cat.ordered {
		tuples, fromArray, err := idx.keyTuples(doc)
		if err != nil {
			return err
		}
		stage = append(stage, staged{idx, tuples, fromArray})
	}
	for _, s := range stage {
		if n := s.idx.addDoc(docID, s.tuples, s.fromArray); n > 0 && m.costs != nil {
			m.costs.Record(collName, s.idx.name, n)
		}
	}
	return nil
}

// OnUpdate reindexes the document in every index whose shape intersects
// the changed fields. Unaffected indexes are untouched, which is what
// bounds the write cost of narrow updates.
func (m *Manager) OnUpdate(collName, docID string, oldDoc, newDoc domain.Document, changed []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil
	}

	type staged struct {
		idx       *Index
		oldTuples [][]interface{}
		newTuples [][]interface{}
		fromArray bool
	}
	var stage []staged
	for _, idx := range cat.ordered {
		if !idx.touchesAny(changed) {
			continue
		}
		oldTuples, _, err := idx.keyTuples(oldDoc)
		if err != nil {
			// The old document was indexed before, so this should not
			// happen; treat it as removal of nothing.
			oldTuples = nil
		}
		newTuples, fromArray, err := idx.keyTuples(newDoc)
		if err != nil {
			return err
		}
		stage = append(stage, staged{idx, oldTuples, newTuples, fromArray})
	}
	for _, s := range stage {
		written := s.idx.removeDoc(docID, s.oldTuples)
		written += s.idx.addDoc(docID, s.newTuples, s.fromArray)
		if written > 0 && m.costs != nil {
			m.costs.Record(collName, s.idx.name, written)
		}
	}
	return nil
}

// OnDelete removes every index entry referencing the document.
func (m *Manager) OnDelete(collName, docID string, doc domain.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return
	}
	for _, idx := range cat.ordered {
		tuples, _, err := idx.keyTuples(doc)
		if err != nil {
			continue
		}
		if n := idx.removeDoc(docID, tuples); n > 0 && m.costs != nil {
			m.costs.Record(collName, idx.name, n)
		}
	}
}

// Lookup reports, for each index in creation order, how the filter's
// field set matches the index under the leftmost-prefix rule.
func (m *Manager) Lookup(collName string, filter map[string]domain.Predicate) []PrefixMatch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil
	}
	out := make([]PrefixMatch, 0, len(cat.ordered))
	for _, idx := range cat.ordered {
		eq, rng := MatchPrefix(idx.def.Fields, filter)
		out = append(out, PrefixMatch{Index: idx.name, EqPrefix: eq, Range: rng})
	}
	return out
}

// ListForCollection returns creation-ordered metadata for every index of
// the collection.
func (m *Manager) ListForCollection(collName string) []domain.IndexInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil
	}
	return cat.infos()
}

// Version returns the collection's catalog version, bumped on every
// create or drop.
func (m *Manager) Version(collName string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cat, ok := m.catalogs[collName]; ok {
		return cat.version
	}
	return 0
}

// Candidates scans the named index and returns document IDs matching the
// filter's equality prefix and optional trailing range predicate, in
// index order.
func (m *Manager) Candidates(collName, indexName string, filter map[string]domain.Predicate) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil, false
	}
	idx, ok := cat.get(indexName)
	if !ok {
		return nil, false
	}
	eq, rng := MatchPrefix(idx.def.Fields, filter)
	return idx.candidates(filter, eq, rng), true
}

// IndexedValues returns, for each document ID the index references under
// the filter, the field values recorded in the index itself. Used to
// serve covered queries without fetching documents.
func (m *Manager) IndexedValues(collName, indexName string, filter map[string]domain.Predicate) (map[string]domain.Document, []string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil, nil, false
	}
	idx, ok := cat.get(indexName)
	if !ok {
		return nil, nil, false
	}
	eq, rng := MatchPrefix(idx.def.Fields, filter)
	ids, values := idx.candidateValues(filter, eq, rng)
	return values, ids, true
}

// Expired returns the IDs of documents past their TTL across all TTL
// indexes of the collection, as of now.
func (m *Manager) Expired(collName string, now time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, ok := m.catalogs[collName]
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, idx := range cat.ordered {
		for _, id := range idx.expiredBefore(now) {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// Collections returns the names of all collections with at least one
// index.
func (m *Manager) Collections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.catalogs))
	for name, cat := range m.catalogs {
		if len(cat.ordered) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ExportDefs returns every index definition per collection in creation
// order, for snapshot persistence. Indexes are rebuilt from documents on
// load, so only the shapes travel.
func (m *Manager) ExportDefs() map[string][]domain.IndexDef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]domain.IndexDef, len(m.catalogs))
	for name, cat := range m.catalogs {
		defs := make([]domain.IndexDef, 0, len(cat.ordered))
		for _, idx := range cat.ordered {
			defs = append(defs, idx.def)
		}
		if len(defs) > 0 {
			out[name] = defs
		}
	}
	return out
}
