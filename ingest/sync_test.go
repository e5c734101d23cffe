package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"ragapi/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(raws ...string) []json.RawMessage {
	rows := make([]json.RawMessage, len(raws))
	for i, r := range raws {
		rows[i] = json.RawMessage(r)
	}
	return rows
}

func rowsParams(rows []json.RawMessage, fullRefresh bool) types.RowsIngestParams {
	return types.RowsIngestParams{
		FileID:      "ds-1",
		Title:       "Dataset One",
		URL:         "https://example.com/ds-1",
		Rows:        rows,
		FullRefresh: fullRefresh,
	}
}

func seedRows(t *testing.T, s *Syncer, raws ...string) {
	t.Helper()
	_, err := s.SyncRows(context.Background(), rowsParams(rowsOf(raws...), true))
	require.NoError(t, err)
}

func TestSyncIncrementalDiff(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	// Existing fingerprints {h1,h2,h3}, incoming hashing to {h2,h3,h4}.
	seedRows(t, s, `{"id":1}`, `{"id":2}`, `{"id":3}`)

	res, err := s.SyncRows(context.Background(),
		rowsParams(rowsOf(`{"id":2}`, `{"id":3}`, `{"id":4}`), false))
	require.NoError(t, err)

	assert.Equal(t, ModeIncremental, res.Mode)
	assert.Equal(t, 1, res.RowsInserted)
	assert.Equal(t, 1, res.RowsDeleted)

	want := map[string]struct{}{}
	for _, raw := range rowsOf(`{"id":2}`, `{"id":3}`, `{"id":4}`) {
		h, err := HashRow(raw)
		require.NoError(t, err)
		want[h] = struct{}{}
	}
	assert.Equal(t, want, st.storedHashes("ds-1"))
}

func TestSyncIncrementalIdempotent(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	rows := rowsOf(`{"id":1}`, `{"id":2}`)
	res, err := s.SyncRows(context.Background(), rowsParams(rows, false))
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsInserted)

	insertsBefore := st.insertRowCalls
	deletesBefore := st.deleteRowCalls

	res, err = s.SyncRows(context.Background(), rowsParams(rows, false))
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowsInserted)
	assert.Equal(t, 0, res.RowsDeleted)

	// Unchanged rows cost zero writes.
	assert.Equal(t, insertsBefore, st.insertRowCalls)
	assert.Equal(t, deletesBefore, st.deleteRowCalls)
}

func TestSyncIncrementalCollapsesDuplicates(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	res, err := s.SyncRows(context.Background(),
		rowsParams(rowsOf(`{"id":1}`, `{"id":1}`, `{"id":2}`), false))
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowsInserted)
	assert.Len(t, st.storedHashes("ds-1"), 2)
}

func TestSyncFullRefresh(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	seedRows(t, s, `{"id":1}`, `{"id":2}`, `{"id":3}`)

	incoming := rowsOf(`{"id":10}`, `{"id":11}`, `{"id":12}`, `{"id":13}`, `{"id":14}`)
	res, err := s.SyncRows(context.Background(), rowsParams(incoming, true))
	require.NoError(t, err)

	assert.Equal(t, ModeFullRefresh, res.Mode)
	assert.Equal(t, 5, res.RowsInserted)
	// Removed rows are not counted in this mode.
	assert.Equal(t, 0, res.RowsDeleted)

	want := map[string]struct{}{}
	for _, raw := range incoming {
		h, err := HashRow(raw)
		require.NoError(t, err)
		want[h] = struct{}{}
	}
	assert.Equal(t, want, st.storedHashes("ds-1"))
}

func TestSyncMalformedRowAbortsBeforeWrites(t *testing.T) {
	for _, fullRefresh := range []bool{false, true} {
		st := newMemStore()
		s := NewSyncer(st)

		_, err := s.SyncRows(context.Background(),
			rowsParams(rowsOf(`{"id":1}`, `"not an object"`), fullRefresh))
		require.ErrorIs(t, err, ErrMalformedRow)

		assert.Empty(t, st.meta)
		assert.Empty(t, st.schemas)
		assert.Zero(t, st.insertRowCalls)
	}
}

func TestSyncSchemaFirstSeenOrder(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	res, err := s.SyncRows(context.Background(),
		rowsParams(rowsOf(`{"b":1,"a":2}`, `{"a":9,"c":3}`), false))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, res.SchemaKeys)
	assert.Equal(t, []string{"b", "a", "c"}, st.schemas["ds-1"])

	meta := st.meta["ds-1"]
	assert.Equal(t, "Dataset One", meta.Title)
	assert.Equal(t, "https://example.com/ds-1", meta.URL)
}

func TestSyncEmptySchema(t *testing.T) {
	st := newMemStore()
	s := NewSyncer(st)

	_, err := s.SyncRows(context.Background(), rowsParams(rowsOf(`{}`, `{}`), false))
	require.ErrorIs(t, err, ErrEmptySchema)
	assert.Empty(t, st.meta)
}
