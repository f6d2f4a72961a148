// Package pgvector stores venue embeddings in PostgreSQL using the
// pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mwiater/nabin/internal/rag/store"
)

// Config configures the pgvector store.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string
	// Collection partitions documents inside the table.
	Collection string
}

// Store implements store.VectorStore on PostgreSQL.
type Store struct {
	db         *sql.DB
	collection string
}

// Open connects to PostgreSQL and bootstraps the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("pgvector store: DSN is required")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("pgvector store: collection is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, collection: cfg.Collection}
	if err := s.bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS nabin_documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		text TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		map TEXT NOT NULL,
		embedding vector NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, id)
	)`,
}

func (s *Store) bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Name() string { return "pgvector" }

func (s *Store) Upsert(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for _, doc := range docs {
		if err := store.Validate(doc); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nabin_documents (collection, id, text, name, address, map, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::vector, now())
		ON CONFLICT (collection, id) DO UPDATE SET
			text = EXCLUDED.text,
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			map = EXCLUDED.map,
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		_, err := stmt.ExecContext(ctx,
			s.collection,
			doc.ID,
			doc.Text,
			doc.Metadata.Name,
			doc.Metadata.Address,
			doc.Metadata.Map,
			encodeVector(doc.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Query orders by the pgvector cosine distance operator.
func (s *Store) Query(ctx context.Context, vec []float32, k int) ([]store.Hit, error) {
	if k <= 0 || len(vec) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, name, address, map, embedding <=> $2::vector AS distance
		FROM nabin_documents
		WHERE collection = $1 AND vector_dims(embedding) = $4
		ORDER BY embedding <=> $2::vector ASC, id ASC
		LIMIT $3
	`, s.collection, encodeVector(vec), k, len(vec))
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var hits []store.Hit
	for rows.Next() {
		var hit store.Hit
		if err := rows.Scan(&hit.ID, &hit.Text, &hit.Metadata.Name, &hit.Metadata.Address, &hit.Metadata.Map, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return hits, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM nabin_documents WHERE collection = $1 AND id = ANY($2)`,
		s.collection, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (s *Store) IDs(ctx context.Context) ([]string, error) {
	var ids pq.StringArray
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(array_agg(id ORDER BY id), '{}') FROM nabin_documents WHERE collection = $1`,
		s.collection).Scan(&ids)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	return []string(ids), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nabin_documents WHERE collection = $1`, s.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector renders a vector in pgvector's text input format.
func encodeVector(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
