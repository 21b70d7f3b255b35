package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(path, "products")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rec(id, source string, index int, text string, vec []float32) *Record {
	return &Record{
		ID:        id,
		Embedding: vec,
		Text:      text,
		Metadata: map[string]interface{}{
			"source":      source,
			"chunk_index": index,
			"language":    "en",
		},
	}
}

func TestSQLiteStore_UpsertAndCount(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("fresh store count = %d", count)
	}

	err = s.Upsert(ctx, []*Record{
		rec("a_0", "a.txt", 0, "first", []float32{1, 0, 0}),
		rec("a_1", "a.txt", 1, "second", []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatal(err)
	}
	count, _ = s.Count(ctx)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSQLiteStore_UpsertReplacesByID(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	if err := s.Upsert(ctx, []*Record{rec("a_0", "a.txt", 0, "old", []float32{1, 0, 0})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []*Record{rec("a_0", "a.txt", 0, "new", []float32{1, 0, 0})}); err != nil {
		t.Fatal(err)
	}
	count, _ := s.Count(ctx)
	if count != 1 {
		t.Fatalf("upsert by id should not duplicate, count = %d", count)
	}
	hits, err := s.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Text != "new" {
		t.Errorf("text = %q, want replaced text", hits[0].Text)
	}
}

func TestSQLiteStore_QueryOrdering(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	err := s.Upsert(ctx, []*Record{
		rec("exact", "a.txt", 0, "exact", []float32{1, 0, 0}),
		rec("close", "a.txt", 1, "close", []float32{0.9, 0.1, 0}),
		rec("far", "a.txt", 2, "far", []float32{0, 1, 0}),
	})
	if err != nil {
		t.Fatal(err)
	}

	hits, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "exact" || hits[1].ID != "close" {
		t.Errorf("hits ordered %s, %s; want exact, close", hits[0].ID, hits[1].ID)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Error("hits must be ordered by ascending distance")
	}
	if hits[0].Distance > 1e-6 {
		t.Errorf("identical vector distance = %f, want ~0", hits[0].Distance)
	}
}

func TestSQLiteStore_QueryKLargerThanCollection(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	if err := s.Upsert(ctx, []*Record{rec("a_0", "a.txt", 0, "only", []float32{1, 0, 0})}); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Query(ctx, []float32{0, 1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestSQLiteStore_QueryEmpty(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	ctx := context.Background()

	s, err := OpenSQLiteStore(path, "products")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []*Record{rec("a_0", "a.txt", 0, "persisted", []float32{0, 0, 1})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := openTestStore(t, path)
	count, _ := reopened.Count(ctx)
	if count != 1 {
		t.Fatalf("count after reopen = %d", count)
	}
	hits, err := reopened.Query(ctx, []float32{0, 0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Text != "persisted" {
		t.Errorf("text = %q", hits[0].Text)
	}
	// Metadata numbers come back as float64 after the JSON round trip.
	if idx, ok := hits[0].Metadata["chunk_index"].(float64); !ok || idx != 0 {
		t.Errorf("chunk_index = %v", hits[0].Metadata["chunk_index"])
	}
}

func TestSQLiteStore_DeleteBySource(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	err := s.Upsert(ctx, []*Record{
		rec("a_0", "a.txt", 0, "a0", []float32{1, 0, 0}),
		rec("a_1", "a.txt", 1, "a1", []float32{0, 1, 0}),
		rec("b_0", "b.txt", 0, "b0", []float32{0, 0, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBySource(ctx, "a.txt"); err != nil {
		t.Fatal(err)
	}
	count, _ := s.Count(ctx)
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	hits, _ := s.Query(ctx, []float32{1, 0, 0}, 3)
	if len(hits) != 1 || hits[0].ID != "b_0" {
		t.Errorf("only b_0 should remain, got %v hits", len(hits))
	}
	// Deleting an absent source is fine.
	if err := s.DeleteBySource(ctx, "missing.txt"); err != nil {
		t.Errorf("delete of missing source: %v", err)
	}
}

func TestSQLiteStore_Drop(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "kb.db"))
	ctx := context.Background()

	// Dropping an empty collection is not an error.
	if err := s.Drop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, []*Record{rec("a_0", "a.txt", 0, "a0", []float32{1, 0, 0})}); err != nil {
		t.Fatal(err)
	}
	if err := s.Drop(ctx); err != nil {
		t.Fatal(err)
	}
	count, _ := s.Count(ctx)
	if count != 0 {
		t.Errorf("count after drop = %d", count)
	}
	hits, _ := s.Query(ctx, []float32{1, 0, 0}, 1)
	if len(hits) != 0 {
		t.Error("query after drop should return nothing")
	}
}

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 1},
	}
	for _, tc := range cases {
		if got := cosineDistance(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: distance = %f, want %f", tc.name, got, tc.want)
		}
	}
}
