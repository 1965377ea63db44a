package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/ragroute"
)

// DBPool defines the interface for the database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PgvectorStore implements ragroute.VectorStore on PostgreSQL with the
// pgvector extension. Similarity is cosine: score = 1 - cosine distance.
type PgvectorStore struct {
	pool      DBPool
	tableName string
	dimension int
}

var _ ragroute.VectorStore = (*PgvectorStore)(nil)

// PgvectorOptions configuration for the Postgres connection
type PgvectorOptions struct {
	ConnString string
	TableName  string // Default "ragroute_documents"
	Dimension  int    // Embedding dimension, required for InitSchema
}

// NewPgvectorStore creates a new pgvector-backed store. The pool is created
// once and reused for all queries.
func NewPgvectorStore(ctx context.Context, opts PgvectorOptions) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "ragroute_documents"
	}

	return &PgvectorStore{
		pool:      pool,
		tableName: tableName,
		dimension: opts.Dimension,
	}, nil
}

// NewPgvectorStoreWithPool creates a store with an existing pool.
// Useful for testing with mocks.
func NewPgvectorStoreWithPool(pool DBPool, tableName string, dimension int) *PgvectorStore {
	if tableName == "" {
		tableName = "ragroute_documents"
	}
	return &PgvectorStore{
		pool:      pool,
		tableName: tableName,
		dimension: dimension,
	}
}

// InitSchema creates the pgvector extension and document table if needed
func (s *PgvectorStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		);
	`, s.tableName, s.dimension)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PgvectorStore) Close() {
	s.pool.Close()
}

// Add upserts documents. Every document must carry its embedding; the store
// does not call an embedder itself.
func (s *PgvectorStore) Add(ctx context.Context, docs []ragroute.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4::vector)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, s.tableName)

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", doc.ID)
		}

		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %q: %w", doc.ID, err)
		}

		_, err = s.pool.Exec(ctx, query, doc.ID, doc.Content, metadataJSON, vectorLiteral(doc.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert document %q: %w", doc.ID, err)
		}
	}
	return nil
}

// Delete removes documents by ID
func (s *PgvectorStore) Delete(ctx context.Context, ids []string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.tableName)
	_, err := s.pool.Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Search returns the k nearest documents by cosine similarity
func (s *PgvectorStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]ragroute.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	query := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, vectorLiteral(queryEmbedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []ragroute.SearchResult
	for rows.Next() {
		var (
			doc          ragroute.Document
			metadataJSON []byte
			score        float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %q: %w", doc.ID, err)
			}
		}
		results = append(results, ragroute.SearchResult{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return results, nil
}

// vectorLiteral formats an embedding as a pgvector input literal, e.g.
// "[0.1,0.2,0.3]".
func vectorLiteral(embedding []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
