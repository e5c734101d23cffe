// Package prompt loads the system prompt from a markdown file with a small
// mtime/size based cache.
package prompt

import (
	"os"
	"strings"
	"sync"
	"time"
)

const defaultPath = "prompts/rag_system.md"

type cacheEntry struct {
	modTime time.Time
	size    int64
	text    string
}

type Loader struct {
	path string

	mu    sync.Mutex
	cache *cacheEntry
}

// NewLoader resolves the prompt path from PROMPT_FILE, falling back to the
// default prompts/rag_system.md next to the binary's working directory.
func NewLoader() *Loader {
	path := os.Getenv("PROMPT_FILE")
	if path == "" {
		path = defaultPath
	}
	return &Loader{path: path}
}

func NewLoaderWithPath(path string) *Loader {
	return &Loader{path: path}
}

// Get returns the prompt text, re-reading the file only when its mtime or
// size changed. A missing file surfaces as fs.ErrNotExist.
func (l *Loader) Get() (string, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cache != nil && l.cache.modTime.Equal(info.ModTime()) && l.cache.size == info.Size() {
		return l.cache.text, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", err
	}
	text := normalizeNewlines(string(data))
	l.cache = &cacheEntry{modTime: info.ModTime(), size: info.Size(), text: text}
	return text, nil
}

// normalizeNewlines keeps content stable across platforms.
func normalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
