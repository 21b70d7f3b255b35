package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store on a SQLite file. Record text and metadata
// live in SQLite; embeddings are additionally mirrored in memory so queries
// are a brute-force cosine scan without touching disk per candidate.
type SQLiteStore struct {
	db         *sql.DB
	collection string

	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	byID    map[string]int
}

// OpenSQLiteStore opens or creates the store at dbPath for the named
// collection. Parent directories are created if needed and the embedding
// mirror is loaded from disk.
func OpenSQLiteStore(dbPath, collection string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	s := &SQLiteStore{
		db:         db,
		collection: collection,
		byID:       make(map[string]int),
	}
	if err := s.loadMirror(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_source ON records(collection, source);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) loadMirror() error {
	rows, err := s.db.Query(
		`SELECT id, embedding FROM records WHERE collection = ?`, s.collection)
	if err != nil {
		return err
	}
	defer rows.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = s.ids[:0]
	s.vectors = s.vectors[:0]
	s.byID = make(map[string]int)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		s.byID[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, bytesToVector(blob))
	}
	return rows.Err()
}

// Upsert inserts or replaces records by id in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []*Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (collection, id, source, content, metadata, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()
	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", rec.ID, err)
		}
		source, _ := rec.Metadata["source"].(string)
		if _, err := stmt.ExecContext(ctx, s.collection, rec.ID, source, rec.Text,
			string(metadataJSON), vectorToBytes(rec.Embedding)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		vec := make([]float32, len(rec.Embedding))
		copy(vec, rec.Embedding)
		if pos, ok := s.byID[rec.ID]; ok {
			s.vectors[pos] = vec
			continue
		}
		s.byID[rec.ID] = len(s.ids)
		s.ids = append(s.ids, rec.ID)
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

// Query returns the k nearest records by cosine distance, nearest first.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]*Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	type scored struct {
		id       string
		distance float64
	}
	s.mu.RLock()
	scores := make([]scored, len(s.ids))
	for i, vec := range s.vectors {
		scores[i] = scored{id: s.ids[i], distance: cosineDistance(vector, vec)}
	}
	s.mu.RUnlock()
	if len(scores) == 0 {
		return nil, nil
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })
	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]*Hit, 0, k)
	for _, sc := range scores[:k] {
		var content string
		var metadataJSON sql.NullString
		err := s.db.QueryRowContext(ctx,
			`SELECT content, metadata FROM records WHERE collection = ? AND id = ?`,
			s.collection, sc.id,
		).Scan(&content, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("fetch record %s: %w", sc.id, err)
		}
		var metadata map[string]interface{}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", sc.id, err)
			}
		}
		hits = append(hits, &Hit{ID: sc.id, Text: content, Metadata: metadata, Distance: sc.distance})
	}
	return hits, nil
}

// Count returns the number of records in the collection.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// DeleteBySource removes all records whose source column matches.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, source string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE collection = ? AND source = ?`, s.collection, source)
	if err != nil {
		return fmt.Errorf("select by source: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND source = ?`, s.collection, source); err != nil {
		return fmt.Errorf("delete by source: %w", err)
	}
	s.removeFromMirror(ids)
	return nil
}

// Drop removes every record in the collection. Absence of records is not an error.
func (s *SQLiteStore) Drop(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ?`, s.collection); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	s.mu.Lock()
	s.ids = nil
	s.vectors = nil
	s.byID = make(map[string]int)
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) removeFromMirror(ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keptIDs := s.ids[:0]
	keptVectors := s.vectors[:0]
	byID := make(map[string]int)
	for i, id := range s.ids {
		if drop[id] {
			continue
		}
		byID[id] = len(keptIDs)
		keptIDs = append(keptIDs, id)
		keptVectors = append(keptVectors, s.vectors[i])
	}
	s.ids = keptIDs
	s.vectors = keptVectors
	s.byID = byID
}

// cosineDistance returns 1 - cosine similarity, in [0, 2]. Mismatched or
// zero-norm vectors get the neutral distance 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func vectorToBytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(x))
	}
	return out
}

func bytesToVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
