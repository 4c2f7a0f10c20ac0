// Package docstore is the document-store seam used by the catalog and
// collection repositories.
//
// A store is a set of named collections holding schemaless documents keyed
// by an opaque, store-assigned id. There are no multi-document transactions.
// Two implementations are provided: Mongo (production) and Memory (tests and
// local runs). Both are safe for concurrent use.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoDocument is returned by Get, Update and Delete when the id does not
// exist in the collection.
var ErrNoDocument = errors.New("docstore: no such document")

// Fields is the body of a document, excluding its id.
type Fields map[string]any

// Document is a stored document and its id.
type Document struct {
	ID     string
	Fields Fields
}

// Update is a partial update applied to one document.
//
// Set overwrites the named fields. ArrayUnion appends each value to the
// named array field unless it is already present. ArrayRemove removes every
// occurrence of each value. A field may not appear in both ArrayUnion and
// ArrayRemove of the same Update.
type Update struct {
	Set         Fields
	ArrayUnion  map[string][]any
	ArrayRemove map[string][]any
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return len(u.Set) == 0 && len(u.ArrayUnion) == 0 && len(u.ArrayRemove) == 0
}

// Client is the document store contract.
type Client interface {
	// List returns every document of the collection in store iteration order.
	List(ctx context.Context, collection string) ([]Document, error)
	// Get returns one document or ErrNoDocument.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Add stores a new document and returns its assigned id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Update applies upd to an existing document or returns ErrNoDocument.
	Update(ctx context.Context, collection, id string, upd Update) error
	// Delete removes a document or returns ErrNoDocument.
	Delete(ctx context.Context, collection, id string) error
}

// Querier is implemented by stores that can filter server side. Where
// returns documents whose field equals value or, for array fields, contains
// value.
type Querier interface {
	Where(ctx context.Context, collection, field string, value any) ([]Document, error)
}

// Encode converts a bson-tagged struct into Fields. Struct fields tagged
// `bson:"-"` (such as ids and derived values) are dropped.
func Encode(v any) (Fields, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return Fields(m), nil
}

// Decode fills the bson-tagged struct v from doc.Fields. Fields the struct
// does not declare are ignored. The caller sets the id.
func Decode(doc Document, v any) error {
	fields := doc.Fields
	if fields == nil {
		fields = Fields{}
	}
	raw, err := bson.Marshal(map[string]any(fields))
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, v)
}
