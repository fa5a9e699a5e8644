// Package storage provides the document and blob collaborators behind
// the submission pipeline: a schemaless per-collection record store and
// an image store returning durable references.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Document is a stored record plus its identity metadata. Timestamps
// are assigned by the store, not the caller.
type Document struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Body      json.RawMessage
}

// Decode unmarshals the document body into out.
func (d *Document) Decode(out any) error {
	return json.Unmarshal(d.Body, out)
}

// Query selects an owner's records, newest first, one page at a time.
// Cursor is opaque; pass the previous page's Cursor to continue.
type Query struct {
	OwnerID  string
	PageSize int
	Cursor   string
}

// Page is one page of query results.
type Page struct {
	Items   []Document
	Cursor  string
	HasMore bool
}

// Update pairs a record ID with a partial body merge.
type Update struct {
	ID   string
	Data map[string]any
}

// DocumentStore is the document database boundary.
type DocumentStore interface {
	// CreateRecord stores body under a fresh ID and returns it.
	CreateRecord(ctx context.Context, collection, ownerID string, body any) (string, error)
	// PutRecord stores body under an explicit ID, creating or replacing.
	PutRecord(ctx context.Context, collection, id, ownerID string, body any) error
	GetRecord(ctx context.Context, collection, id string) (*Document, error)
	// UpdateRecord merges partial data into an existing record's body.
	UpdateRecord(ctx context.Context, collection, id string, partial map[string]any) error
	BatchUpdate(ctx context.Context, collection string, updates []Update) error
	QueryByOwner(ctx context.Context, collection string, q Query) (*Page, error)
}

// BlobStore persists an uploaded image and returns a durable reference:
// either a path/URL or an inlined data URI, depending on the
// implementation.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, pathHint string) (string, error)
}
