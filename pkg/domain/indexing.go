package domain

import (
	"strings"
	"time"
)

// IndexKind classifies an index by its shape.
type IndexKind string

const (
	IndexSingle   IndexKind = "single"
	IndexCompound IndexKind = "compound"
	IndexMultiKey IndexKind = "multikey"
)

// IndexField names one field of an index shape plus its sort direction.
type IndexField struct {
	Name string `json:"name" msgpack:"name"`
	Desc bool   `json:"desc,omitempty" msgpack:"desc"`
}

// IndexDef describes the shape and options of an index. Order of Fields
// matters: queries can only use a contiguous leftmost prefix.
type IndexDef struct {
	Fields      []IndexField  `json:"fields" msgpack:"fields"`
	ExpireAfter time.Duration `json:"expire_after,omitempty" msgpack:"expire_after"`
}

// CanonicalName derives the index name from its shape, e.g.
// "customerId_1_orderDate_-1".
func (d IndexDef) CanonicalName() string {
	parts := make([]string, 0, len(d.Fields)*2)
	for _, f := range d.Fields {
		dir := "1"
		if f.Desc {
			dir = "-1"
		}
		parts = append(parts, f.Name, dir)
	}
	return strings.Join(parts, "_")
}

// FieldNames returns the field names of the shape, in index order.
func (d IndexDef) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// IndexInfo is the catalog's description of one index, as reported to
// operators and consumed by the query planner.
type IndexInfo struct {
	Name        string        `json:"name"`
	Fields      []IndexField  `json:"fields"`
	Kind        IndexKind     `json:"kind"`
	ExpireAfter time.Duration `json:"expire_after,omitempty"`
	Redundant   bool          `json:"redundant,omitempty"`
	Entries     int           `json:"entries"`
	Seq         int           `json:"seq"`
}

// DocumentStore is the surface the surrounding layers (HTTP handlers,
// CLI) program against.
type DocumentStore interface {
	Insert(collName string, doc Document) (string, error)
	Get(collName, docID string) (Document, error)
	Update(collName, docID string, delta Document) error
	Delete(collName, docID string) error
	Find(collName string, req QueryRequest) ([]Document, *Plan, error)
	Explain(collName string, req QueryRequest) (*Plan, error)

	CreateIndex(collName string, def IndexDef) (string, error)
	DropIndex(collName, indexName string) error
	ListIndexes(collName string) ([]IndexInfo, error)

	WriteCosts(collName string) map[string]int64
	Stats() map[string]interface{}

	SaveToFile(filename string) error
	LoadFromFile(filename string) error
	StartBackgroundWorkers()
	StopBackgroundWorkers()
}
