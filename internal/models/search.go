package models

// DefaultTopK is the number of chunks returned when a search request does not set top_k.
const DefaultTopK = 3

// SearchKBRequest is the body of POST /search_kb.
type SearchKBRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// KBChunkMetadata is the normalized metadata attached to every returned chunk.
// Source and ChunkIndex are always present and well-typed, regardless of what
// the underlying store returned.
type KBChunkMetadata struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
}

// KBChunk is a single normalized knowledge-base search hit.
// Score is 1 - cosine distance, so higher means more similar.
type KBChunk struct {
	Text     string          `json:"text"`
	Metadata KBChunkMetadata `json:"metadata"`
	Score    float64         `json:"score"`
}

// SearchKBResponse is the body of the /search_kb response. Chunks is never nil;
// all KB failure modes produce an empty list rather than an error.
type SearchKBResponse struct {
	Chunks []KBChunk `json:"chunks"`
}
