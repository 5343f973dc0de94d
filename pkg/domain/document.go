package domain

// Document represents a single schemaless document: a mapping from field
// name to value. Values are scalars, []interface{} arrays, or nested
// map[string]interface{} objects. The "_id" field is owned by the storage
// engine and is always a string.
type Document map[string]interface{}

// ID returns the document's "_id" field, or "" if it has none.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Clone returns a copy of the document. Top-level fields are copied;
// values are shared, since stored documents are treated as immutable and
// replaced wholesale on update.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
