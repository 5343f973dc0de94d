package storage

import (
	"reflect"
	"strconv"

	"github.com/rcastelli/plandb/pkg/domain"
)

// Insert stores a new document and indexes it. The document's "_id"
// field is used as the key when present; otherwise a key is generated.
// Returns DuplicateKeyError if the key already exists.
func (se *StorageEngine) Insert(collName string, doc domain.Document) (string, error) {
	coll := se.getOrCreateCollection(collName)
	doc = doc.Clone()

	id := doc.ID()
	if id == "" {
		// A supplied "_id" that is not a non-empty string is a contract
		// violation, never silently replaced with a generated key.
		if raw, present := doc["_id"]; present {
			return "", &domain.InvalidDocumentIDError{Collection: collName, Value: raw}
		}
		id = se.nextID(coll)
		doc["_id"] = id
	}

	coll.buildMu.RLock()
	defer coll.buildMu.RUnlock()

	lock := se.keyLock(collName, id)
	lock.Lock()
	defer lock.Unlock()

	if _, exists := coll.docs.Load(id); exists {
		return "", &domain.DuplicateKeyError{Collection: collName, Key: id}
	}

	// Index first: a document the indexes reject is never stored, so the
	// store and its indexes cannot diverge.
	if err := se.indexes.OnInsert(collName, id, doc); err != nil {
		return "", err
	}

	coll.docs.Store(id, doc)
	coll.docCount.Add(1)
	return id, nil
}

// nextID generates an unused numeric document key.
func (se *StorageEngine) nextID(coll *collection) string {
	for {
		id := strconv.FormatInt(coll.nextID.Add(1), 10)
		if _, taken := coll.docs.Load(id); !taken {
			return id
		}
	}
}

// Get retrieves a document by key. Returns NotFoundError if absent.
func (se *StorageEngine) Get(collName, docID string) (domain.Document, error) {
	coll, err := se.getCollection(collName)
	if err != nil {
		return nil, err
	}
	doc, exists := coll.docs.Load(docID)
	if !exists {
		return nil, &domain.NotFoundError{Collection: collName, Key: docID}
	}
	return doc.Clone(), nil
}

// Update applies a field-level delta to an existing document. Only the
// fields that actually change are reported to the index manager, which
// bounds the write cost of narrow updates. Returns NotFoundError if the
// key is absent.
func (se *StorageEngine) Update(collName, docID string, delta domain.Document) error {
	coll, err := se.getCollection(collName)
	if err != nil {
		return err
	}

	coll.buildMu.RLock()
	defer coll.buildMu.RUnlock()

	lock := se.keyLock(collName, docID)
	lock.Lock()
	defer lock.Unlock()

	oldDoc, exists := coll.docs.Load(docID)
	if !exists {
		return &domain.NotFoundError{Collection: collName, Key: docID}
	}

	var changed []string
	for field, value := range delta {
		if field == "_id" {
			continue
		}
		if old, present := oldDoc[field]; !present || !reflect.DeepEqual(old, value) {
			changed = append(changed, field)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	newDoc := oldDoc.Clone()
	for _, field := range changed {
		newDoc[field] = delta[field]
	}

	if err := se.indexes.OnUpdate(collName, docID, oldDoc, newDoc, changed); err != nil {
		return err
	}

	// Replace wholesale so concurrent readers see old or new, never a mix.
	coll.docs.Store(docID, newDoc)
	return nil
}

// Delete removes a document and all index entries referencing it.
// Returns NotFoundError if the key is absent.
func (se *StorageEngine) Delete(collName, docID string) error {
	coll, err := se.getCollection(collName)
	if err != nil {
		return err
	}

	coll.buildMu.RLock()
	defer coll.buildMu.RUnlock()

	lock := se.keyLock(collName, docID)
	lock.Lock()
	defer lock.Unlock()

	doc, exists := coll.docs.Load(docID)
	if !exists {
		return &domain.NotFoundError{Collection: collName, Key: docID}
	}

	// Index entries go first, so the document is never evicted while its
	// entries still resolve to it for readers holding no lock.
	se.indexes.OnDelete(collName, docID, doc)
	coll.docs.Delete(docID)
	coll.docCount.Add(-1)
	return nil
}
