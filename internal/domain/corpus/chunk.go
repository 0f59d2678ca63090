package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrChunkFormat is returned for a chunk document that is not a JSON array.
var ErrChunkFormat = errors.New("chunk format unexpected (expected array)")

// ChunkItem is one full-text section inside a chunk file.
type ChunkItem struct {
	Anchor   string `json:"anchor,omitempty"`
	Heading  string `json:"heading,omitempty"`
	Text     string `json:"text,omitempty"`
	Verbatim string `json:"verbatim,omitempty"`
}

// VerbatimText returns the verbatim text, falling back to the plain text.
func (it ChunkItem) VerbatimText() string {
	if it.Verbatim != "" {
		return it.Verbatim
	}
	return it.Text
}

// Title is the reader heading: heading, else anchor, else "Section N" (1-based).
func (it ChunkItem) Title(i int) string {
	if it.Heading != "" {
		return it.Heading
	}
	if it.Anchor != "" {
		return it.Anchor
	}
	return fmt.Sprintf("Section %d", i+1)
}

// Chunk is a decoded chunk file, addressed by record rec_index.
type Chunk []ChunkItem

// DecodeChunk parses a chunk document. Anything but a JSON array is rejected.
func DecodeChunk(data []byte) (Chunk, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrChunkFormat
	}
	var c Chunk
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	return c, nil
}

// Item returns the item at i.
func (c Chunk) Item(i int) (ChunkItem, bool) {
	if i < 0 || i >= len(c) {
		return ChunkItem{}, false
	}
	return c[i], true
}
