package ingest

import (
	"context"
	"sync"

	"ragapi/store"
	"ragapi/types"
)

// memStore is an in-memory DBStorer covering the methods the ingest paths
// touch. Unimplemented methods panic through the embedded nil interface.
type memStore struct {
	store.DBStorer

	mu             sync.Mutex
	meta           map[string]types.DocumentMeta
	schemas        map[string][]string
	rows           map[string]map[string]types.Row
	chunks         map[string][]types.Chunk
	insertRowCalls int
	deleteRowCalls int
	saveChunkErr   error
}

func newMemStore() *memStore {
	return &memStore{
		meta:    make(map[string]types.DocumentMeta),
		schemas: make(map[string][]string),
		rows:    make(map[string]map[string]types.Row),
		chunks:  make(map[string][]types.Chunk),
	}
}

func (m *memStore) SaveMetadata(_ context.Context, meta types.DocumentMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[meta.FileID] = meta
	return nil
}

func (m *memStore) UpdateSchema(_ context.Context, fileID string, schema []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[fileID] = schema
	return nil
}

func (m *memStore) GetRowHashes(_ context.Context, datasetID string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hashes := make(map[string]struct{})
	for h := range m.rows[datasetID] {
		hashes[h] = struct{}{}
	}
	return hashes, nil
}

func (m *memStore) InsertRow(_ context.Context, row types.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertRowCalls++
	if m.rows[row.DatasetID] == nil {
		m.rows[row.DatasetID] = make(map[string]types.Row)
	}
	m.rows[row.DatasetID][row.Hash] = row
	return nil
}

func (m *memStore) DeleteRowsByHash(_ context.Context, datasetID string, hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteRowCalls++
	for _, h := range hashes {
		delete(m.rows[datasetID], h)
	}
	return nil
}

func (m *memStore) DeleteAllRows(_ context.Context, datasetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, datasetID)
	return nil
}

func (m *memStore) DeleteChunksByFileID(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, fileID)
	return nil
}

func (m *memStore) SaveChunk(_ context.Context, c types.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveChunkErr != nil {
		return m.saveChunkErr
	}
	m.chunks[c.Meta.FileID] = append(m.chunks[c.Meta.FileID], c)
	return nil
}

func (m *memStore) storedHashes(datasetID string) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	hashes := make(map[string]struct{})
	for h := range m.rows[datasetID] {
		hashes[h] = struct{}{}
	}
	return hashes
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *fakeEmbedder) Embed(_ string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}
