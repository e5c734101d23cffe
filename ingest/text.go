package ingest

import (
	"context"
	"fmt"
	"log"

	"ragapi/chunker"
	"ragapi/model"
	"ragapi/store"
	"ragapi/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxInflightWrites bounds the chunk fan-out per ingestion call.
const maxInflightWrites = 16

// TextIngestor replaces all stored chunks of a document with a fresh chunking
// of its text.
type TextIngestor struct {
	store    store.DBStorer
	embedder model.EmbedderInterface
}

func NewTextIngestor(s store.DBStorer, e model.EmbedderInterface) *TextIngestor {
	return &TextIngestor{
		store:    s,
		embedder: e,
	}
}

// Ingest upserts the document metadata, deletes every previously stored chunk
// for the file id, then embeds and stores each new chunk with bounded
// concurrency. Any failed chunk write fails the whole call; chunks already
// written in this call are not rolled back.
func (t *TextIngestor) Ingest(ctx context.Context, params types.TextIngestParams) (int, error) {
	meta := types.DocumentMeta{FileID: params.FileID, Title: params.Title, URL: params.URL}
	if err := t.store.SaveMetadata(ctx, meta); err != nil {
		return 0, err
	}
	if err := t.store.DeleteChunksByFileID(ctx, params.FileID); err != nil {
		return 0, err
	}

	chunks, err := chunker.Split(params.Content, chunker.DefaultChunkSize, chunker.DefaultOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, ErrNoChunks
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflightWrites)
	for _, c := range chunks {
		g.Go(func() error {
			emb, err := t.embedder.Embed(c.Text)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", c.Index, err)
			}
			chunk := types.Chunk{
				ID:      uuid.New(),
				Content: c.Text,
				Meta: types.ChunkMeta{
					FileID:     params.FileID,
					FileTitle:  params.Title,
					FileURL:    params.URL,
					FileType:   types.FileTypeText,
					ChunkIndex: c.Index,
				},
				Embedding: emb,
			}
			return t.store.SaveChunk(gctx, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	log.Printf("[INGEST] replaced chunks for %s: %d inserted", params.FileID, len(chunks))
	return len(chunks), nil
}
