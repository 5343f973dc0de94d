package domain

import "fmt"

// DuplicateKeyError is returned by Insert when the document key already
// exists in the collection.
type DuplicateKeyError struct {
	Collection string
	Key        string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in collection %q", e.Key, e.Collection)
}

// NotFoundError is returned when a document key does not exist.
type NotFoundError struct {
	Collection string
	Key        string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found in collection %q", e.Key, e.Collection)
}

// MultiArrayIndexError is returned when an index shape would cover more
// than one array-valued field, either at creation time or when a document
// arrives with two array values under one index.
type MultiArrayIndexError struct {
	Index  string
	Fields []string
}

func (e *MultiArrayIndexError) Error() string {
	return fmt.Sprintf("index %q would cover multiple array fields %v; at most one array field per index", e.Index, e.Fields)
}

// InvalidTTLFieldError is returned when TTL options are set on anything
// other than a single-field index over a date-typed field.
type InvalidTTLFieldError struct {
	Index string
	Field string
}

func (e *InvalidTTLFieldError) Error() string {
	return fmt.Sprintf("index %q: TTL requires a single-field index over a date field, got %q", e.Index, e.Field)
}

// InvalidDocumentIDError is returned by Insert when the caller supplies
// an "_id" that is not a non-empty string. The key is never coerced or
// silently replaced.
type InvalidDocumentIDError struct {
	Collection string
	Value      interface{}
}

func (e *InvalidDocumentIDError) Error() string {
	return fmt.Sprintf("document key must be a non-empty string, got %T (%v) in collection %q", e.Value, e.Value, e.Collection)
}

// DuplicateIndexNameError is returned when an index with the same
// canonical name already exists in the catalog.
type DuplicateIndexNameError struct {
	Name string
}

func (e *DuplicateIndexNameError) Error() string {
	return fmt.Sprintf("index %q already exists", e.Name)
}
