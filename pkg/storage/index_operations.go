package storage

import (
	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/indexing"
)

// CreateIndex validates the shape, registers the index and performs the
// initial full build over the collection's current documents. The build
// holds off document mutations so it sees a consistent snapshot; it is
// not cancellable, and a failed build leaves the collection without the
// index.
func (se *StorageEngine) CreateIndex(collName string, def domain.IndexDef) (string, error) {
	coll := se.getOrCreateCollection(collName)

	coll.buildMu.Lock()
	defer coll.buildMu.Unlock()

	return se.indexes.CreateIndex(collName, coll.snapshotDocs(), def)
}

// DropIndex removes an index from the collection.
func (se *StorageEngine) DropIndex(collName, indexName string) error {
	coll, err := se.getCollection(collName)
	if err != nil {
		return err
	}

	coll.buildMu.Lock()
	defer coll.buildMu.Unlock()

	return se.indexes.DropIndex(collName, indexName)
}

// ListIndexes returns creation-ordered metadata for the collection's
// indexes.
func (se *StorageEngine) ListIndexes(collName string) ([]domain.IndexInfo, error) {
	if _, err := se.getCollection(collName); err != nil {
		return nil, err
	}
	return se.indexes.ListForCollection(collName), nil
}

// Lookup reports the leftmost-prefix match of a filter against every
// index of the collection.
func (se *StorageEngine) Lookup(collName string, filter map[string]domain.Predicate) []indexing.PrefixMatch {
	return se.indexes.Lookup(collName, filter)
}
