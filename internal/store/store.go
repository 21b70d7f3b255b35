// Package store provides the persistent vector store holding embedded
// knowledge-base chunks, with cosine-distance nearest-neighbor search.
package store

import "context"

// Record is the unit of storage: one embedded chunk keyed by a globally
// unique id derived from its source document and chunk index.
type Record struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]interface{}
}

// Hit is a nearest-neighbor match. Distance is cosine distance (0 = identical
// direction, 2 = opposite); callers convert it to a similarity score.
type Hit struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Distance float64
}

// Store persists embedded chunks and answers nearest-neighbor queries.
// Records are never individually updated: Upsert replaces by id, Drop removes
// the whole collection.
type Store interface {
	// Upsert inserts or replaces records by id.
	Upsert(ctx context.Context, records []*Record) error
	// Query returns the k nearest records to vector by cosine distance,
	// ordered nearest first.
	Query(ctx context.Context, vector []float32, k int) ([]*Hit, error)
	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int64, error)
	// DeleteBySource removes all records whose metadata source matches.
	DeleteBySource(ctx context.Context, source string) error
	// Drop removes the whole collection. Dropping an absent collection is not
	// an error.
	Drop(ctx context.Context) error
	Close() error
}
