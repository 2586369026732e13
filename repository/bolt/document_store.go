package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskbot/repository"
)

// DocumentStore keeps one bucket per collection in a local BoltDB file.
type DocumentStore struct {
	db *bolt.DB
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// Open initializes the BoltDB file backing the store.
func Open(path string) (*DocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &DocumentStore{db: db}, nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var doc json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return repository.ErrDocumentNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return repository.ErrDocumentNotFound
		}
		doc = append(json.RawMessage(nil), v...)
		return nil
	})
	return doc, err
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, doc json.RawMessage, merge bool) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if id == "" {
		return errors.New("bolt: empty document id")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		payload := doc
		if merge {
			if existing := b.Get([]byte(id)); existing != nil {
				payload, err = mergeObjects(existing, doc)
				if err != nil {
					return err
				}
			}
		}
		return b.Put([]byte(id), payload)
	})
}

func (s *DocumentStore) GetAll(ctx context.Context, collection string) ([]repository.Document, error) {
	return s.scan(ctx, collection, func(json.RawMessage) bool { return true })
}

func (s *DocumentStore) Where(ctx context.Context, collection, field, value string) ([]repository.Document, error) {
	return s.scan(ctx, collection, func(data json.RawMessage) bool {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return false
		}
		var got string
		if err := json.Unmarshal(fields[field], &got); err != nil {
			return false
		}
		return got == value
	})
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.View(func(*bolt.Tx) error { return nil })
}

// Close closes the Bolt database.
func (s *DocumentStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *DocumentStore) scan(ctx context.Context, collection string, keep func(json.RawMessage) bool) ([]repository.Document, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var docs []repository.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !keep(v) {
				continue
			}
			docs = append(docs, repository.Document{
				ID:   string(k),
				Data: append(json.RawMessage(nil), v...),
			})
		}
		return nil
	})
	return docs, err
}

func (s *DocumentStore) ready(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return ctx.Err()
}

// mergeObjects overlays the top-level fields of patch onto base.
func mergeObjects(base, patch json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}
