package kb

import (
	"math"
	"testing"

	"github.com/chatkb/chatkb/internal/store"
)

func TestNormalizeHit_WellFormed(t *testing.T) {
	chunk := NormalizeHit(&store.Hit{
		ID:   "doc1.txt_2",
		Text: "some chunk text",
		Metadata: map[string]interface{}{
			"source":      "doc1.txt",
			"chunk_index": float64(2), // JSON numbers decode as float64
			"language":    "en",
		},
		Distance: 0.25,
	})
	if chunk.Text != "some chunk text" {
		t.Errorf("text = %q", chunk.Text)
	}
	if chunk.Metadata.Source != "doc1.txt" {
		t.Errorf("source = %q", chunk.Metadata.Source)
	}
	if chunk.Metadata.ChunkIndex != 2 {
		t.Errorf("chunk_index = %d", chunk.Metadata.ChunkIndex)
	}
	if math.Abs(chunk.Score-0.75) > 1e-9 {
		t.Errorf("score = %f, want 0.75", chunk.Score)
	}
}

func TestNormalizeHit_MalformedChunkIndex(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  int
	}{
		{"missing", nil, 0},
		{"string digits", "7", 7},
		{"string garbage", "abc", 0},
		{"float", float64(3), 3},
		{"fractional float", 3.9, 3},
		{"int", 5, 5},
		{"int64", int64(6), 6},
		{"bool", true, 0},
		{"nan", math.NaN(), 0},
		{"huge float", 1e300, 0},
		{"huge negative float", -1e300, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := map[string]interface{}{"source": "doc1.txt"}
			if tc.value != nil {
				meta["chunk_index"] = tc.value
			}
			chunk := NormalizeHit(&store.Hit{Text: "x", Metadata: meta})
			if chunk.Metadata.ChunkIndex != tc.want {
				t.Errorf("chunk_index = %d, want %d", chunk.Metadata.ChunkIndex, tc.want)
			}
		})
	}
}

func TestNormalizeHit_MalformedSource(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"missing", nil, ""},
		{"string", "doc1.txt", "doc1.txt"},
		{"number", float64(42), "42"},
		{"bool", true, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := map[string]interface{}{}
			if tc.value != nil {
				meta["source"] = tc.value
			}
			chunk := NormalizeHit(&store.Hit{Text: "x", Metadata: meta})
			if chunk.Metadata.Source != tc.want {
				t.Errorf("source = %q, want %q", chunk.Metadata.Source, tc.want)
			}
		})
	}
}

func TestNormalizeHit_NilCases(t *testing.T) {
	chunk := NormalizeHit(nil)
	if chunk.Text != "" || chunk.Metadata.Source != "" || chunk.Metadata.ChunkIndex != 0 || chunk.Score != 0 {
		t.Errorf("nil hit should normalize to zero chunk, got %+v", chunk)
	}

	chunk = NormalizeHit(&store.Hit{Text: "t", Distance: 1})
	if chunk.Metadata.Source != "" || chunk.Metadata.ChunkIndex != 0 {
		t.Errorf("nil metadata should default fields, got %+v", chunk.Metadata)
	}
	if chunk.Score != 0 {
		t.Errorf("distance 1 should score 0, got %f", chunk.Score)
	}
}

func TestNormalizeHit_NonFiniteDistance(t *testing.T) {
	chunk := NormalizeHit(&store.Hit{Text: "t", Distance: math.NaN()})
	if chunk.Score != 0 {
		t.Errorf("NaN distance should score 0, got %f", chunk.Score)
	}
	chunk = NormalizeHit(&store.Hit{Text: "t", Distance: math.Inf(1)})
	if chunk.Score != 0 {
		t.Errorf("infinite distance should score 0, got %f", chunk.Score)
	}
}
