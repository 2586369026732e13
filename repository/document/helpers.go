package document

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/repository"
)

// load reads and decodes a single document. Absent documents map to notFound.
func load(ctx context.Context, store repository.DocumentStore, collection, id string, out any, notFound error) error {
	raw, err := store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return notFound
		}
		return domain.StoreUnavailable(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed "+collection+" document", err)
	}
	return nil
}

func save(ctx context.Context, store repository.DocumentStore, collection, id string, in any, merge bool) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode "+collection+" document", err)
	}
	if err := store.Set(ctx, collection, id, payload, merge); err != nil {
		return domain.StoreUnavailable(err)
	}
	return nil
}

// decodeAll decodes docs into T, skipping documents written in a foreign shape.
// keyed fills in the key of documents that do not carry it in their body.
func decodeAll[T any](docs []repository.Document, logger *zap.Logger, collection string, keyed func(*T, string)) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc.Data, &item); err != nil {
			logger.Warn("skipping malformed document",
				zap.String("collection", collection),
				zap.String("id", doc.ID),
				zap.Error(err))
			continue
		}
		if keyed != nil {
			keyed(&item, doc.ID)
		}
		out = append(out, item)
	}
	return out
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
