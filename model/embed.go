package model

import (
	"log"
	"os"
)

// EmbedderInterface turns text into an embedding vector. Dimensionality is
// backend-defined and passed through opaquely.
type EmbedderInterface interface {
	Embed(text string) ([]float32, error)
}

// NewEmbedderFromEnv builds the Ollama embedder from OLLAMA_EMBEDDING_URL and
// OLLAMA_EMBEDDING_MODEL.
func NewEmbedderFromEnv() *OllamaEmbedder {
	url := os.Getenv("OLLAMA_EMBEDDING_URL")
	name := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	log.Printf("[EMBEDDER] using Ollama embeddings (%s)", name)
	return NewOllamaEmbedder(url, name)
}
