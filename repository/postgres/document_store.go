package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskbot/repository"
)

type documentStore struct {
	pool *pgxpool.Pool
}

// NewDocumentStore returns a DocumentStore backed by the documents table.
func NewDocumentStore(pool *pgxpool.Pool) repository.DocumentStore {
	return &documentStore{pool: pool}
}

func (s *documentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	const query = `
	SELECT data
	FROM documents
	WHERE collection = $1 AND id = $2
	`
	var data []byte
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *documentStore) Set(ctx context.Context, collection, id string, doc json.RawMessage, merge bool) error {
	const replace = `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (collection, id) DO UPDATE
	SET data = EXCLUDED.data,
		updated_at = NOW()
	`
	const merged = `
	INSERT INTO documents (collection, id, data, created_at, updated_at)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (collection, id) DO UPDATE
	SET data = documents.data || EXCLUDED.data,
		updated_at = NOW()
	`
	query := replace
	if merge {
		query = merged
	}
	_, err := s.pool.Exec(ctx, query, collection, id, []byte(doc))
	return err
}

func (s *documentStore) GetAll(ctx context.Context, collection string) ([]repository.Document, error) {
	const query = `
	SELECT id, data
	FROM documents
	WHERE collection = $1
	ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (s *documentStore) Where(ctx context.Context, collection, field, value string) ([]repository.Document, error) {
	const query = `
	SELECT id, data
	FROM documents
	WHERE collection = $1 AND data ->> $2 = $3
	ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, collection, field, value)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (s *documentStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func collectDocuments(rows pgx.Rows) ([]repository.Document, error) {
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		docs = append(docs, repository.Document{ID: id, Data: append(json.RawMessage(nil), data...)})
	}
	return docs, rows.Err()
}
