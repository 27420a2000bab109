package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv_documents (
	doc_key    TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

type sqliteDocumentStore struct {
	db *sql.DB
}

// NewSQLiteDocumentStore creates the kv_documents table if it does not exist.
func NewSQLiteDocumentStore(ctx context.Context, db *sql.DB) (DocumentStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create kv_documents table: %w", err)
	}
	return &sqliteDocumentStore{db: db}, nil
}

func (s *sqliteDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE doc_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *sqliteDocumentStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_documents (doc_key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

func (s *sqliteDocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_documents WHERE doc_key = ?`, key)
	return err
}

func (s *sqliteDocumentStore) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_key, value FROM kv_documents WHERE doc_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byKey := make(map[string][]byte, len(keys))
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		byKey[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, key := range keys {
		out[i] = byKey[key]
	}
	return out, nil
}
