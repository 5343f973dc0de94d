package indexing

import (
	"fmt"
	"time"

	"github.com/google/btree"
	"github.com/rcastelli/plandb/pkg/domain"
)

// entry is one key tuple in an index, mapped to the set of document IDs
// holding that tuple. Multi-key indexes store one entry per array
// element, so several entries can reference the same document.
type entry struct {
	key  []interface{}
	docs map[string]struct{}
}

// Index is a sorted structure mapping key tuples to document ID sets.
// It is owned by the Manager and only mutated under the Manager's lock.
type Index struct {
	name      string
	def       domain.IndexDef
	seq       int
	redundant bool
	multikey  bool
	tree      *btree.BTreeG[*entry]
	entries   int // live (key, document) pairs
}

const btreeDegree = 16

func newIndex(def domain.IndexDef, seq int) *Index {
	idx := &Index{
		name: def.CanonicalName(),
		def:  def,
		seq:  seq,
	}
	idx.tree = btree.NewG(btreeDegree, func(a, b *entry) bool {
		return idx.lessKey(a.key, b.key)
	})
	return idx
}

func (idx *Index) Name() string { return idx.name }

func (idx *Index) Def() domain.IndexDef { return idx.def }

// Kind reports the index classification. An index becomes multi-key the
// first time an array value is indexed under it.
func (idx *Index) Kind() domain.IndexKind {
	switch {
	case idx.multikey:
		return domain.IndexMultiKey
	case len(idx.def.Fields) > 1:
		return domain.IndexCompound
	default:
		return domain.IndexSingle
	}
}

func (idx *Index) Info() domain.IndexInfo {
	return domain.IndexInfo{
		Name:        idx.name,
		Fields:      idx.def.Fields,
		Kind:        idx.Kind(),
		ExpireAfter: idx.def.ExpireAfter,
		Redundant:   idx.redundant,
		Entries:     idx.entries,
		Seq:         idx.seq,
	}
}

// lessKey orders key tuples field by field, honoring each field's
// declared direction.
func (idx *Index) lessKey(a, b []interface{}) bool {
	for i := range a {
		c := domain.CompareValues(a[i], b[i])
		if idx.def.Fields[i].Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// hasField reports whether the index shape includes the named field.
func (idx *Index) hasField(name string) bool {
	for _, f := range idx.def.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// touchesAny reports whether any of the changed fields affect this index.
func (idx *Index) touchesAny(changed []string) bool {
	for _, name := range changed {
		if idx.hasField(name) {
			return true
		}
	}
	return false
}

// keyTuples computes the index key tuples for a document. A single
// array-valued field expands to one tuple per distinct element; a second
// array field is a contract violation. Missing fields index as nil.
// TTL indexes skip documents whose field is not a date.
func (idx *Index) keyTuples(doc domain.Document) ([][]interface{}, bool, error) {
	if idx.def.ExpireAfter > 0 {
		if _, ok := domain.AsTime(doc[idx.def.Fields[0].Name]); !ok {
			return nil, false, nil
		}
	}

	base := make([]interface{}, len(idx.def.Fields))
	arrayAt := -1
	var arrayFields []string
	for i, f := range idx.def.Fields {
		v := doc[f.Name]
		if _, ok := domain.AsArray(v); ok {
			arrayFields = append(arrayFields, f.Name)
			arrayAt = i
		}
		base[i] = v
	}
	if len(arrayFields) > 1 {
		return nil, false, &domain.MultiArrayIndexError{Index: idx.name, Fields: arrayFields}
	}
	if arrayAt < 0 {
		return [][]interface{}{base}, false, nil
	}

	arr, _ := domain.AsArray(base[arrayAt])
	if len(arr) == 0 {
		// An empty array indexes as a single nil entry, so the document
		// stays reachable through the index.
		tuple := append([]interface{}(nil), base...)
		tuple[arrayAt] = nil
		return [][]interface{}{tuple}, true, nil
	}

	tuples := make([][]interface{}, 0, len(arr))
	seen := make(map[string]struct{}, len(arr))
	for _, el := range arr {
		probe := fmt.Sprint(el)
		if _, dup := seen[probe]; dup {
			continue
		}
		seen[probe] = struct{}{}
		tuple := append([]interface{}(nil), base...)
		tuple[arrayAt] = el
		tuples = append(tuples, tuple)
	}
	return tuples, true, nil
}

// addDoc inserts the document's tuples and returns the number of index
// entries written.
func (idx *Index) addDoc(docID string, tuples [][]interface{}, fromArray bool) int {
	if fromArray {
		idx.multikey = true
	}
	written := 0
	for _, tuple := range tuples {
		probe := &entry{key: tuple}
		if e, ok := idx.tree.Get(probe); ok {
			if _, dup := e.docs[docID]; !dup {
				e.docs[docID] = struct{}{}
				written++
				idx.entries++
			}
			continue
		}
		idx.tree.ReplaceOrInsert(&entry{key: tuple, docs: map[string]struct{}{docID: {}}})
		written++
		idx.entries++
	}
	return written
}

// removeDoc removes the document's tuples and returns the number of
// index entries removed.
func (idx *Index) removeDoc(docID string, tuples [][]interface{}) int {
	removed := 0
	for _, tuple := range tuples {
		probe := &entry{key: tuple}
		e, ok := idx.tree.Get(probe)
		if !ok {
			continue
		}
		if _, present := e.docs[docID]; !present {
			continue
		}
		delete(e.docs, docID)
		removed++
		idx.entries--
		if len(e.docs) == 0 {
			idx.tree.Delete(e)
		}
	}
	return removed
}

// scanMatches walks the index in key order and calls visit for every
// entry whose tuple satisfies the equality prefix and the optional range
// predicate on the field after it.
func (idx *Index) scanMatches(filter map[string]domain.Predicate, eqPrefix int, withRange bool, visit func(e *entry)) {
	firstEq := eqPrefix > 0 && !idx.def.Fields[0].Desc

	idx.tree.Ascend(func(e *entry) bool {
		for i := 0; i < eqPrefix; i++ {
			pred := filter[idx.def.Fields[i].Name]
			if !domain.ValuesEqual(e.key[i], pred.Eq) {
				// The tree is ordered by the first field, so once we pass
				// the equality value on an ascending first field, nothing
				// later can match.
				if i == 0 && firstEq && domain.CompareValues(e.key[0], filter[idx.def.Fields[0].Name].Eq) > 0 {
					return false
				}
				return true
			}
		}
		if withRange && eqPrefix < len(idx.def.Fields) {
			pred := filter[idx.def.Fields[eqPrefix].Name]
			if !pred.Matches(e.key[eqPrefix]) {
				return true
			}
		}
		visit(e)
		return true
	})
}

// candidates collects document IDs from the matching entries, in index
// order, deduped.
func (idx *Index) candidates(filter map[string]domain.Predicate, eqPrefix int, withRange bool) []string {
	var out []string
	seen := make(map[string]struct{})
	idx.scanMatches(filter, eqPrefix, withRange, func(e *entry) {
		for id := range e.docs {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	})
	return out
}

// candidateValues collects, per matching document, the field values
// recorded in its index entry. Only the entries the filter selects are
// visited, so a narrow covered query never materializes the whole index.
func (idx *Index) candidateValues(filter map[string]domain.Predicate, eqPrefix int, withRange bool) ([]string, map[string]domain.Document) {
	var ids []string
	values := make(map[string]domain.Document)
	idx.scanMatches(filter, eqPrefix, withRange, func(e *entry) {
		for id := range e.docs {
			if _, dup := values[id]; dup {
				continue
			}
			doc := make(domain.Document, len(idx.def.Fields))
			for i, f := range idx.def.Fields {
				doc[f.Name] = e.key[i]
			}
			values[id] = doc
			ids = append(ids, id)
		}
	})
	return ids, values
}

// expiredBefore returns the IDs of documents whose indexed date plus the
// TTL duration is at or before now. Only meaningful on a TTL index.
func (idx *Index) expiredBefore(now time.Time) []string {
	if idx.def.ExpireAfter <= 0 {
		return nil
	}
	deadline := now.Add(-idx.def.ExpireAfter)
	ascending := !idx.def.Fields[0].Desc

	var out []string
	seen := make(map[string]struct{})
	idx.tree.Ascend(func(e *entry) bool {
		t, isTime := domain.AsTime(e.key[0])
		if !isTime {
			return true
		}
		if t.After(deadline) {
			// On an ascending date index every later entry is younger.
			return !ascending
		}
		for id := range e.docs {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return true
	})
	return out
}
