package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ragapi/ingest"
	"ragapi/loader/internal"
	"ragapi/model"
	"ragapi/store"
	"ragapi/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderStore struct {
	store.DBStorer

	mu     sync.Mutex
	rows   map[string]map[string]types.Row
	chunks map[string][]types.Chunk
}

func newLoaderStore() *loaderStore {
	return &loaderStore{
		rows:   make(map[string]map[string]types.Row),
		chunks: make(map[string][]types.Chunk),
	}
}

func (s *loaderStore) SaveMetadata(_ context.Context, _ types.DocumentMeta) error { return nil }

func (s *loaderStore) UpdateSchema(_ context.Context, _ string, _ []string) error { return nil }

func (s *loaderStore) DeleteChunksByFileID(_ context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, fileID)
	return nil
}

func (s *loaderStore) SaveChunk(_ context.Context, c types.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[c.Meta.FileID] = append(s.chunks[c.Meta.FileID], c)
	return nil
}

func (s *loaderStore) GetRowHashes(_ context.Context, datasetID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hashes := make(map[string]struct{})
	for h := range s.rows[datasetID] {
		hashes[h] = struct{}{}
	}
	return hashes, nil
}

func (s *loaderStore) InsertRow(_ context.Context, row types.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[row.DatasetID] == nil {
		s.rows[row.DatasetID] = make(map[string]types.Row)
	}
	s.rows[row.DatasetID][row.Hash] = row
	return nil
}

func (s *loaderStore) DeleteRowsByHash(_ context.Context, datasetID string, hashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hashes {
		delete(s.rows[datasetID], h)
	}
	return nil
}

func (s *loaderStore) DeleteAllRows(_ context.Context, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, datasetID)
	return nil
}

type loaderEmbedder struct{}

func (loaderEmbedder) Embed(_ string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func newTestService(t *testing.T, st store.DBStorer, emb model.EmbedderInterface) *Service {
	t.Helper()
	root := t.TempDir()
	svc, err := New(st, emb, internal.Config{
		SourceDir:      filepath.Join(root, "in"),
		ArchiveDir:     filepath.Join(root, "archive"),
		BadDir:         filepath.Join(root, "bad"),
		MonitoringTime: time.Second,
	})
	require.NoError(t, err)
	return svc
}

func TestIngestTextFile(t *testing.T) {
	st := newLoaderStore()
	svc := newTestService(t, st, loaderEmbedder{})

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("A", 2500)), 0644))

	require.NoError(t, svc.IngestFile(context.Background(), path))
	assert.Len(t, st.chunks["notes"], 3)
}

func TestIngestRowsFile(t *testing.T) {
	st := newLoaderStore()
	svc := newTestService(t, st, loaderEmbedder{})

	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1},{"id":2},{"id":3}]`), 0644))

	require.NoError(t, svc.IngestFile(context.Background(), path))
	assert.Len(t, st.rows["customers"], 3)
}

func TestIngestMalformedRowsFile(t *testing.T) {
	st := newLoaderStore()
	svc := newTestService(t, st, loaderEmbedder{})

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1},"oops"]`), 0644))

	err := svc.IngestFile(context.Background(), path)
	require.ErrorIs(t, err, ingest.ErrMalformedRow)
	assert.Empty(t, st.rows["broken"])
}

func TestIngestUnsupportedFile(t *testing.T) {
	svc := newTestService(t, newLoaderStore(), loaderEmbedder{})

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

	err := svc.IngestFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
