package repository

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names shared with the admin dashboard.
const (
	CollectionUsers      = "users"
	CollectionTasks      = "tasks"
	CollectionSessions   = "sessions"
	CollectionBroadcasts = "broadcasts"
	CollectionSettings   = "settings"
)

// ErrDocumentNotFound is returned by DocumentStore.Get for absent documents.
var ErrDocumentNotFound = errors.New("document not found")

// Document is a stored JSON object together with its key.
type Document struct {
	ID   string
	Data json.RawMessage
}

// DocumentStore is the minimal document database the bot relies on.
// Writes are atomic per document only.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// Set writes doc. With merge, top-level fields of doc overwrite the stored ones
	// and the remaining stored fields are kept.
	Set(ctx context.Context, collection, id string, doc json.RawMessage, merge bool) error
	// GetAll returns every document in the collection ordered by id.
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// Where returns documents whose top-level string field equals value, ordered by id.
	Where(ctx context.Context, collection, field, value string) ([]Document, error)
	Ping(ctx context.Context) error
}
