package prompt

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoaderGet(t *testing.T) {
	path := writePrompt(t, "You are a helpful assistant.\n")
	l := NewLoaderWithPath(path)

	text, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant.\n", text)
}

func TestLoaderMissingFile(t *testing.T) {
	l := NewLoaderWithPath(filepath.Join(t.TempDir(), "nope.md"))

	_, err := l.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoaderReloadsOnChange(t *testing.T) {
	path := writePrompt(t, "version one")
	l := NewLoaderWithPath(path)

	text, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, "version one", text)

	require.NoError(t, os.WriteFile(path, []byte("version two!"), 0644))
	// Force a distinct mtime for coarse filesystem clocks.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	text, err = l.Get()
	require.NoError(t, err)
	assert.Equal(t, "version two!", text)
}

func TestLoaderNormalizesNewlines(t *testing.T) {
	path := writePrompt(t, "line one\r\nline two\rline three")
	l := NewLoaderWithPath(path)

	text, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three", text)
}
