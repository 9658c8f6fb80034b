package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jobassist-backend/internal/shared/apperr"
)

// PGStore keeps documents as jsonb rows in the documents table. Merges use
// the jsonb concatenation operator, which replaces top-level keys only.
type PGStore struct {
	DB *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *PGStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return decodeData(raw)
}

func (s *PGStore) MergeSet(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, now(), now())
ON CONFLICT (collection, id) DO UPDATE
SET data = documents.data || EXCLUDED.data,
    updated_at = now()
`, collection, id, string(payload))
	if err != nil {
		return fmt.Errorf("merge document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE documents
SET data = data || $3::jsonb,
    updated_at = now()
WHERE collection = $1 AND id = $2
`, collection, id, string(payload))
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	return requireRow(res)
}

func (s *PGStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return requireRow(res)
}

func (s *PGStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, data
FROM documents
WHERE collection = $1
ORDER BY created_at ASC, id ASC
`, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decodeData(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error) {
	if err := validateKey(collection, id); err != nil {
		return 0, err
	}
	var next int64
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, jsonb_build_object($3::text, $4::bigint), now(), now())
ON CONFLICT (collection, id) DO UPDATE
SET data = documents.data || jsonb_build_object($3::text, COALESCE((documents.data->>$3)::bigint, 0) + $4::bigint),
    updated_at = now()
RETURNING (data->>$3)::bigint
`, collection, id, field, delta).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("increment %s on %s/%s: %w", field, collection, id, err)
	}
	return next, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func decodeData(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
