package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/embedding"
	"github.com/chatkb/chatkb/internal/store"
)

// chunkLanguage is recorded in every chunk's metadata; the corpus is English.
const chunkLanguage = "en"

// Indexer chunks, embeds, and writes documents into the vector store.
// It only ever writes; the store is read back through count alone.
type Indexer struct {
	store    store.Store
	embedder embedding.Embedder
	chunker  *Chunker
	logger   *zap.Logger
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(st store.Store, emb embedding.Embedder, chunker *Chunker, logger *zap.Logger) *Indexer {
	return &Indexer{
		store:    st,
		embedder: emb,
		chunker:  chunker,
		logger:   logger,
	}
}

// document is a named unit of source text.
type document struct {
	name    string
	content string
}

// Run indexes every .txt document in dataDir (non-recursive). With rebuild
// the collection is dropped first; without it, a non-empty collection makes
// the run a logged no-op so existing data is preserved. Chunks from all
// documents are embedded in one batch and upserted in one batch.
func (idx *Indexer) Run(ctx context.Context, dataDir string, rebuild bool) error {
	if rebuild {
		if err := idx.store.Drop(ctx); err != nil {
			return fmt.Errorf("drop collection: %w", err)
		}
		idx.logger.Info("dropped existing collection")
	}

	count, err := idx.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if count > 0 {
		idx.logger.Info("collection already populated, skipping (use --rebuild to replace)",
			zap.Int64("records", count))
		return nil
	}

	docs, err := idx.loadDocuments(dataDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		idx.logger.Error("no documents found to index", zap.String("data_dir", dataDir))
		return nil
	}
	idx.logger.Info("loaded documents", zap.Int("count", len(docs)), zap.String("data_dir", dataDir))

	var records []*store.Record
	for _, doc := range docs {
		chunks := idx.chunker.Chunk(doc.content)
		idx.logger.Info("chunked document",
			zap.String("source", doc.name), zap.Int("chunks", len(chunks)))
		for i, chunk := range chunks {
			records = append(records, &store.Record{
				ID:   fmt.Sprintf("%s_%d", doc.name, i),
				Text: chunk,
				Metadata: map[string]interface{}{
					"source":      doc.name,
					"chunk_index": i,
					"language":    chunkLanguage,
				},
			})
		}
	}

	if err := idx.embedRecords(ctx, records); err != nil {
		return err
	}
	if err := idx.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}

	final, err := idx.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	idx.logger.Info("indexing complete",
		zap.Int64("records", final), zap.Int("documents", len(docs)))
	return nil
}

// ReindexSource re-chunks and re-embeds a single document file, replacing
// its previous records. Used by watch mode when a file changes.
func (idx *Indexer) ReindexSource(ctx context.Context, path string) error {
	name := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var records []*store.Record
	for i, chunk := range idx.chunker.Chunk(string(content)) {
		records = append(records, &store.Record{
			ID:   fmt.Sprintf("%s_%d", name, i),
			Text: chunk,
			Metadata: map[string]interface{}{
				"source":      name,
				"chunk_index": i,
				"language":    chunkLanguage,
			},
		})
	}
	if err := idx.embedRecords(ctx, records); err != nil {
		return err
	}
	if err := idx.store.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("delete records for %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil
	}
	if err := idx.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert records for %s: %w", name, err)
	}
	idx.logger.Info("reindexed document", zap.String("source", name), zap.Int("chunks", len(records)))
	return nil
}

// RemoveSource deletes all records belonging to the document at path.
func (idx *Indexer) RemoveSource(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if err := idx.store.DeleteBySource(ctx, name); err != nil {
		return fmt.Errorf("delete records for %s: %w", name, err)
	}
	idx.logger.Info("removed document", zap.String("source", name))
	return nil
}

// loadDocuments reads every .txt file directly under dataDir. Unreadable
// files are logged and skipped; a missing directory fails the run.
func (idx *Indexer) loadDocuments(dataDir string) ([]document, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	var docs []document
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			idx.logger.Error("failed to load document, skipping",
				zap.String("path", path), zap.Error(err))
			continue
		}
		docs = append(docs, document{name: entry.Name(), content: string(content)})
		idx.logger.Info("loaded document",
			zap.String("source", entry.Name()), zap.Int("bytes", len(content)))
	}
	return docs, nil
}

func (idx *Indexer) embedRecords(ctx context.Context, records []*store.Record) error {
	if len(records) == 0 {
		return nil
	}
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	for i := range records {
		records[i].Embedding = embeddings[i]
	}
	return nil
}
