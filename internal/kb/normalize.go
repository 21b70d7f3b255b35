package kb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/chatkb/chatkb/internal/models"
	"github.com/chatkb/chatkb/internal/store"
)

// NormalizeHit reshapes a raw store hit into the fixed external contract.
// It is total: malformed metadata never fails a request, fields instead fall
// back to defaults (text "", source "", chunk_index 0, score 0).
//
// Score is 1 - cosine distance, so higher means more similar. For cosine
// distance in [0, 2] the score lands in [-1, 1].
func NormalizeHit(hit *store.Hit) models.KBChunk {
	if hit == nil {
		return models.KBChunk{}
	}
	score := 1 - hit.Distance
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	return models.KBChunk{
		Text: hit.Text,
		Metadata: models.KBChunkMetadata{
			Source:     coerceString(hit.Metadata["source"]),
			ChunkIndex: coerceIndex(hit.Metadata["chunk_index"]),
		},
		Score: score,
	}
}

// coerceString stringifies v; nil becomes "".
func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceIndex converts v to an int. JSON decoding hands back float64 for
// numbers and string for anything the indexer did not write itself; values
// that cannot be read as an integer become 0.
func coerceIndex(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n < math.MinInt || n >= math.MaxInt {
			return 0
		}
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		return 0
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
		return 0
	default:
		return 0
	}
}
