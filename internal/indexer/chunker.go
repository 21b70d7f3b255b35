// Package indexer populates the vector store from a directory of plain-text
// documents: chunking, embedding, and batch upsert.
package indexer

import "strings"

const (
	// DefaultChunkSize and DefaultChunkOverlap are in words.
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 50

	// boundaryWindow is how many characters from the chunk's end a sentence
	// terminator must be found for the chunk to be cut there. Tunable; the
	// value matches what the index was built with.
	boundaryWindow = 80
	// minRefineSize disables boundary refinement for tiny windows.
	minRefineSize = 50
)

// Chunker splits text into overlapping word-bounded chunks. Chunking is a
// pure function of the input and configuration: the same document always
// yields the same chunk sequence.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in words. Non-positive values fall back to the defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 2
		}
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk returns the ordered chunk texts for text. Documents at or under the
// window size come back as a single trimmed chunk; blank input yields none.
// Longer documents are cut by a sliding window that advances by
// chunkSize - overlap words, with each non-final chunk truncated at the last
// sentence terminator ('.' or newline) when one falls within the final
// boundaryWindow characters; the next window start is recomputed from the
// truncated length. Empty chunks are dropped.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= c.chunkSize {
		return []string{strings.TrimSpace(text)}
	}

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}
	var chunks []string
	start := 0
	for start < len(words) {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if end < len(words) && c.chunkSize > minRefineSize {
			if brk := strings.LastIndexAny(chunk, ".\n"); brk > len(chunk)-boundaryWindow {
				chunk = strings.TrimSpace(chunk[:brk+1])
				end = start + len(strings.Fields(chunk))
			}
		}
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(words) {
			break
		}
		next := end - c.overlap
		if next < 0 {
			next = 0
		}
		// A degenerate boundary cut could consume fewer words than the
		// overlap; force forward progress so the loop terminates.
		if next <= start {
			next = start + step
		}
		start = next
	}
	return chunks
}
