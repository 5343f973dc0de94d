package indexing

import (
	"github.com/rcastelli/plandb/pkg/domain"
)

// Catalog holds all indexes of one collection, in creation order. Its
// lifecycle is scoped to the collection; the Manager owns one per
// collection and guards it with its lock.
type Catalog struct {
	byName  map[string]*Index
	ordered []*Index
	version uint64
	nextSeq int
}

func newCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Index)}
}

// Version increments on every create or drop, so plan caches keyed on it
// invalidate when the catalog changes.
func (c *Catalog) Version() uint64 { return c.version }

func (c *Catalog) get(name string) (*Index, bool) {
	idx, ok := c.byName[name]
	return idx, ok
}

func (c *Catalog) add(idx *Index) {
	c.byName[idx.name] = idx
	c.ordered = append(c.ordered, idx)
	c.version++
}

func (c *Catalog) remove(name string) bool {
	if _, ok := c.byName[name]; !ok {
		return false
	}
	delete(c.byName, name)
	for i, idx := range c.ordered {
		if idx.name == name {
			c.ordered = append(c.ordered[:i], c.ordered[i+1:]...)
			break
		}
	}
	c.version++
	return true
}

// shapeOverlaps reports whether one field-name sequence is a prefix of
// the other. Such indexes are redundant for planning purposes: the
// longer one can answer every prefix query the shorter one can.
func shapeOverlaps(a, b []domain.IndexField) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// markRedundancy flags the newly added index when an earlier index
// already covers the same leading fields. Redundant indexes are kept —
// flagged for operators, never silently merged.
func (c *Catalog) markRedundancy(idx *Index) {
	for _, other := range c.ordered {
		if other == idx {
			continue
		}
		if shapeOverlaps(other.def.Fields, idx.def.Fields) {
			idx.redundant = true
			return
		}
	}
}

// infos returns creation-ordered index metadata.
func (c *Catalog) infos() []domain.IndexInfo {
	out := make([]domain.IndexInfo, 0, len(c.ordered))
	for _, idx := range c.ordered {
		out = append(out, idx.Info())
	}
	return out
}
