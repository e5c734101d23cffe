package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ragapi/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type DBStorer interface {
	SaveMetadata(context.Context, types.DocumentMeta) error
	UpdateSchema(ctx context.Context, fileID string, schema []string) error
	SaveChunk(context.Context, types.Chunk) error
	DeleteChunksByFileID(ctx context.Context, fileID string) error
	Search(ctx context.Context, queryVec []float32, limit int, filter map[string]any) ([]types.SearchHit, error)
	GetRowHashes(ctx context.Context, datasetID string) (map[string]struct{}, error)
	InsertRow(context.Context, types.Row) error
	DeleteRowsByHash(ctx context.Context, datasetID string, hashes []string) error
	DeleteAllRows(ctx context.Context, datasetID string) error
	SaveMessage(context.Context, types.ChatMessage) error
	GetHistory(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) SaveMetadata(ctx context.Context, meta types.DocumentMeta) error {
	query := `INSERT INTO document_metadata (id, title, url)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url
			`
	_, err := p.pool.Exec(ctx, query, meta.FileID, meta.Title, meta.URL)
	return err
}

func (p *PostgresStore) UpdateSchema(ctx context.Context, fileID string, schema []string) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, "UPDATE document_metadata SET schema = $2 WHERE id = $1", fileID, data)
	return err
}

func (p *PostgresStore) SaveChunk(ctx context.Context, c types.Chunk) error {
	meta, err := json.Marshal(c.Meta)
	if err != nil {
		return err
	}
	query := `
    INSERT INTO documents (id, content, metadata, embedding)
    VALUES ($1, $2, $3::jsonb, $4)
    `
	_, err = p.pool.Exec(ctx, query,
		c.ID, c.Content, meta, pgvector.NewVector(c.Embedding),
	)
	return err
}

func (p *PostgresStore) DeleteChunksByFileID(ctx context.Context, fileID string) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE metadata->>'file_id' = $1", fileID)
	return err
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int, filter map[string]any) ([]types.SearchHit, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if filter == nil {
		filter = map[string]any{}
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, err
	}

	vector := pgvector.NewVector(queryVec)

	query := `
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM documents
		WHERE embedding IS NOT NULL
		  AND metadata @> $2::jsonb
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, vector, filterJSON, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []types.SearchHit
	for rows.Next() {
		var hit types.SearchHit
		if err := rows.Scan(&hit.Content, &hit.Metadata, &hit.Similarity); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (p *PostgresStore) GetRowHashes(ctx context.Context, datasetID string) (map[string]struct{}, error) {
	rows, err := p.pool.Query(ctx, "SELECT row_hash FROM document_rows WHERE dataset_id = $1", datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

func (p *PostgresStore) InsertRow(ctx context.Context, row types.Row) error {
	// Unique (dataset_id, row_hash) keeps identical rows collapsed to one record.
	query := `
    INSERT INTO document_rows (dataset_id, row_data, row_hash)
    VALUES ($1, $2::jsonb, $3)
    ON CONFLICT (dataset_id, row_hash) DO NOTHING
    `
	_, err := p.pool.Exec(ctx, query, row.DatasetID, []byte(row.Raw), row.Hash)
	return err
}

func (p *PostgresStore) DeleteRowsByHash(ctx context.Context, datasetID string, hashes []string) error {
	_, err := p.pool.Exec(ctx,
		"DELETE FROM document_rows WHERE dataset_id = $1 AND row_hash = ANY($2::text[])",
		datasetID, hashes,
	)
	return err
}

func (p *PostgresStore) DeleteAllRows(ctx context.Context, datasetID string) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM document_rows WHERE dataset_id = $1", datasetID)
	return err
}

func (p *PostgresStore) SaveMessage(ctx context.Context, msg types.ChatMessage) error {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO chat_messages (session_id, role, content) VALUES ($1, $2, $3)",
		msg.SessionID, msg.Role, msg.Content,
	)
	return err
}

func (p *PostgresStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT role, content FROM chat_messages
		 WHERE session_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []types.ChatMessage
	for rows.Next() {
		msg := types.ChatMessage{SessionID: sessionID}
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (p *PostgresStore) createRagTables(ctx context.Context) error {

	query := `
    CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS document_metadata (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT,
		schema JSONB
	);

    CREATE TABLE IF NOT EXISTS documents (
        id UUID PRIMARY KEY,
        content TEXT NOT NULL,
        metadata JSONB NOT NULL,
        embedding vector(768)
    );

	CREATE INDEX IF NOT EXISTS idx_documents_embedding ON documents USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_documents_file_id ON documents ((metadata->>'file_id'));
	CREATE INDEX IF NOT EXISTS idx_documents_metadata ON documents USING gin (metadata jsonb_path_ops);

	CREATE TABLE IF NOT EXISTS document_rows (
		id BIGSERIAL PRIMARY KEY,
		dataset_id TEXT NOT NULL,
		row_data JSONB NOT NULL,
		row_hash TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_document_rows_hash ON document_rows(dataset_id, row_hash);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user','assistant','system')),
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createRagTables(ctx)
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
