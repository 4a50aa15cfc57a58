package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propdesk/pkg/logger"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a write hit a unique constraint.
	ErrConflict = errors.New("document conflicts with an existing one")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Document is a stored record with its data already decoded to plain JSON.
type Document struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Decode unmarshals the document data into out.
func (d Document) Decode(out any) error {
	return json.Unmarshal(d.Data, out)
}

// Store is a collection-scoped JSONB document repository.
type Store struct {
	DB    *sql.DB
	Codec Codec
}

func NewStore(db *sql.DB, codec Codec) *Store {
	if codec == nil {
		codec = KeyShapeCodec{}
	}
	return &Store{DB: db, Codec: codec}
}

func (s *Store) Create(ctx context.Context, collection, id string, v any) error {
	data, err := s.Codec.Encode(v)
	if err != nil {
		return err
	}
	// lib/pq wants JSONB parameters as strings, not []byte
	_, err = s.DB.ExecContext(ctx, `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`,
		collection, id, string(data))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create %s/%s: %w", collection, id, ErrConflict)
		}
		logger.Sugar.Errorf("Failed to create %s/%s: %v", collection, id, err)
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	var data []byte
	err := s.DB.QueryRowContext(ctx, "SELECT data FROM documents WHERE collection = $1 AND id = $2", collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get %s/%s: %v", collection, id, err)
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return s.Codec.Decode(data, out)
}

func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 ORDER BY updated_at DESC`, collection)
	if err != nil {
		logger.Sugar.Errorf("Failed to list %s: %v", collection, err)
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return s.scan(rows)
}

// FindBy returns the documents whose top-level field equals value.
func (s *Store) FindBy(ctx context.Context, collection, field, value string) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND data->>$2 = $3 ORDER BY updated_at DESC`,
		collection, field, value)
	if err != nil {
		logger.Sugar.Errorf("Failed to query %s by %s: %v", collection, field, err)
		return nil, fmt.Errorf("query %s by %s: %w", collection, field, err)
	}
	return s.scan(rows)
}

// Merge shallow-merges patch into the stored document. Last write wins.
func (s *Store) Merge(ctx context.Context, collection, id string, patch any) error {
	data, err := s.Codec.Encode(patch)
	if err != nil {
		return err
	}
	result, err := s.DB.ExecContext(ctx, `UPDATE documents SET data = data || $3::jsonb, updated_at = NOW() WHERE collection = $1 AND id = $2`,
		collection, id, string(data))
	if err != nil {
		logger.Sugar.Errorf("Failed to update %s/%s: %v", collection, id, err)
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return requireAffected(result)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", collection, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete %s/%s: %v", collection, id, err)
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return requireAffected(result)
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = $1", collection).Scan(&n); err != nil {
		logger.Sugar.Errorf("Failed to count %s: %v", collection, err)
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *Store) scan(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := s.Codec.Decode(data, &doc.Data); err != nil {
			logger.Sugar.Warnf("Skipping undecodable document %s: %v", doc.ID, err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
