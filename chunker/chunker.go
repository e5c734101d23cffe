// Package chunker splits raw text into overlapping sliding windows.
package chunker

import (
	"fmt"
	"iter"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// ErrInvalidParams reports rejected chunking parameters.
type ErrInvalidParams struct {
	ChunkSize int
	Overlap   int
}

func (e ErrInvalidParams) Error() string {
	return fmt.Sprintf("invalid chunking parameters: chunk_size=%d overlap=%d (require chunk_size > 0 and 0 <= overlap < chunk_size)", e.ChunkSize, e.Overlap)
}

// Chunk is one window of the input text tagged with its emission index.
type Chunk struct {
	Index int
	Text  string
}

// Iter validates the parameters and returns a restartable sequence of
// (index, window) pairs. Windows advance by chunkSize-overlap; the final
// window is clamped to the end of the text. Empty text yields nothing,
// and text that fits in a single window is yielded whole as (0, text).
func Iter(text string, chunkSize, overlap int) (iter.Seq2[int, string], error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, ErrInvalidParams{ChunkSize: chunkSize, Overlap: overlap}
	}

	return func(yield func(int, string) bool) {
		n := len(text)
		if n == 0 {
			return
		}
		if n <= chunkSize {
			yield(0, text)
			return
		}

		step := chunkSize - overlap
		idx := 0
		for start := 0; start < n; start += step {
			end := start + chunkSize
			if end > n {
				end = n
			}
			if !yield(idx, text[start:end]) {
				return
			}
			idx++
		}
	}, nil
}

// Split materializes the whole sequence. Prefer Iter for very large inputs.
func Split(text string, chunkSize, overlap int) ([]Chunk, error) {
	seq, err := Iter(text, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for i, s := range seq {
		chunks = append(chunks, Chunk{Index: i, Text: s})
	}
	return chunks, nil
}
