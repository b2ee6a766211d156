package services

import (
	"fmt"
	"strings"

	"github.com/devfolio/portfolio-rag/models"
)

// sentenceBoundaryRatio is how far into a window a period must sit before
// the chunker will shorten the window to end at that sentence.
const sentenceBoundaryRatio = 0.7

// Chunker splits document text into overlapping windows sized for embedding.
// Sizes and offsets count characters (runes), not bytes, so multibyte text
// never gets cut mid-character. Windows prefer to end just after a
// sentence-terminating period when one falls in the last 30% of the window;
// only "." counts as a terminator.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker builds a Chunker. chunkOverlap is expected to be smaller than
// chunkSize; a misconfigured overlap cannot loop forever but degrades the
// overlap between consecutive chunks. Validating that is the caller's job.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split produces the chunks of text for documentID. Chunk numbers are
// contiguous from 0, rune offsets never exceed the text length, and every
// chunk has non-empty trimmed text. Text no longer than chunkSize runes
// yields exactly one chunk. The document metadata is copied into every chunk
// together with the parent id, chunk number and window offsets.
func (c *Chunker) Split(text, documentID string, metadata map[string]any) []models.Chunk {
	runes := []rune(text)
	var chunks []models.Chunk
	start := 0
	chunkNum := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer a sentence boundary in the tail of the window.
			if idx := lastPeriod(runes[start:end]); idx >= 0 && float64(idx) >= sentenceBoundaryRatio*float64(c.chunkSize) {
				end = start + idx + 1
			}
		}

		if trimmed := strings.TrimSpace(string(runes[start:end])); trimmed != "" {
			meta := make(map[string]any, len(metadata)+4)
			for k, v := range metadata {
				meta[k] = v
			}
			meta["parent_document_id"] = documentID
			meta["chunk_number"] = chunkNum
			meta["chunk_start_offset"] = start
			meta["chunk_end_offset"] = end

			chunks = append(chunks, models.Chunk{
				ID:       fmt.Sprintf("%s_chunk_%d", documentID, chunkNum),
				Text:     trimmed,
				Metadata: meta,
			})
			chunkNum++
		}

		if end >= len(runes) {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			// Non-advancing window, stop instead of looping forever.
			break
		}
		start = next
	}

	return chunks
}

func lastPeriod(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' {
			return i
		}
	}
	return -1
}
