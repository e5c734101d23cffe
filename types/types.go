package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

const FileTypeText = "text"

// DocumentMeta is the per-document metadata record, keyed by the externally
// assigned file id. Schema is present only for tabular documents.
type DocumentMeta struct {
	FileID string   `json:"file_id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Schema []string `json:"schema,omitempty"`
}

// ChunkMeta is the closed metadata record stored with every chunk.
type ChunkMeta struct {
	FileID     string `json:"file_id"`
	FileTitle  string `json:"file_title"`
	FileURL    string `json:"file_url"`
	FileType   string `json:"file_type"`
	ChunkIndex int    `json:"chunk_index"`
}

type Chunk struct {
	ID        uuid.UUID
	Content   string
	Meta      ChunkMeta
	Embedding []float32
}

// Row is one structured record of a tabular document. Raw keeps the wire form
// so key order survives for schema derivation; Hash is the content fingerprint.
type Row struct {
	DatasetID string
	Raw       json.RawMessage
	Hash      string
}

// SearchHit is an ephemeral retrieval result, produced fresh per query.
type SearchHit struct {
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

type ChatMessage struct {
	SessionID string
	Role      string
	Content   string
}
