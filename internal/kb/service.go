// Package kb provides the knowledge-base search service: it embeds queries,
// runs nearest-neighbor search over the vector store, and shapes hits into
// the external chunk contract. The whole path is fail-open: every failure
// mode degrades to an empty result list, never an error.
package kb

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/embedding"
	"github.com/chatkb/chatkb/internal/models"
	"github.com/chatkb/chatkb/internal/store"
	"github.com/chatkb/chatkb/pkg/utils"
)

// logQueryLen is how much query text is kept in log lines.
const logQueryLen = 50

// State is the lifecycle state of the service.
type State int

const (
	// StateUninitialized means Initialize has not been called.
	StateUninitialized State = iota
	// StateReady means the embedder and store are bound and usable.
	StateReady
	// StateDegraded means initialization failed; the service stays up but
	// every search returns empty. Terminal for the process lifetime.
	StateDegraded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "uninitialized"
	}
}

// Binder opens the embedder and vector store the service searches with.
// It runs once, inside Initialize, so binding failures are owned by the
// service's state machine rather than by the caller.
type Binder func(ctx context.Context) (embedding.Embedder, store.Store, error)

// Service answers top-k knowledge-base queries.
type Service struct {
	bind        Binder
	defaultTopK int
	logger      *zap.Logger

	mu       sync.Mutex
	state    State
	embedder embedding.Embedder
	store    store.Store
}

// NewService creates an uninitialized service. defaultTopK is used when a
// search request does not specify top_k.
func NewService(bind Binder, defaultTopK int, logger *zap.Logger) *Service {
	if defaultTopK <= 0 {
		defaultTopK = models.DefaultTopK
	}
	return &Service{
		bind:        bind,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Initialize binds the embedder and vector store. It never returns an error:
// a binding failure is logged and leaves the service degraded. Calling it
// again is a no-op that reports whether the service is ready.
func (s *Service) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return true
	case StateDegraded:
		return false
	}
	emb, st, err := s.bind(ctx)
	if err != nil {
		s.logger.Error("failed to initialize knowledge base", zap.Error(err))
		s.state = StateDegraded
		return false
	}
	s.embedder = emb
	s.store = st
	s.state = StateReady
	if count, err := st.Count(ctx); err == nil {
		s.logger.Info("knowledge base ready", zap.Int64("records", count))
	}
	return true
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Search returns up to topK chunks relevant to query, nearest first.
// topK <= 0 uses the service default. The result is always a non-nil,
// well-formed slice: an unready service, empty collection, embedding failure,
// or store failure all collapse to an empty list with a log line.
func (s *Service) Search(ctx context.Context, query string, topK int) []models.KBChunk {
	empty := []models.KBChunk{}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	s.mu.Lock()
	state, emb, st := s.state, s.embedder, s.store
	s.mu.Unlock()
	if state != StateReady {
		s.logger.Warn("knowledge base not ready, returning empty result",
			zap.String("state", state.String()))
		return empty
	}

	count, err := st.Count(ctx)
	if err != nil {
		s.logger.Error("knowledge base count failed", zap.Error(err))
		return empty
	}
	if count == 0 {
		s.logger.Warn("knowledge base collection is empty")
		return empty
	}

	vector, err := emb.Embed(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed",
			zap.String("query", utils.Truncate(query, logQueryLen)),
			zap.Error(err))
		return empty
	}

	k := topK
	if int64(k) > count {
		k = int(count)
	}
	hits, err := st.Query(ctx, vector, k)
	if err != nil {
		s.logger.Error("knowledge base query failed",
			zap.String("query", utils.Truncate(query, logQueryLen)),
			zap.Error(err))
		return empty
	}

	chunks := make([]models.KBChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, NormalizeHit(hit))
	}
	s.logger.Info("knowledge base search",
		zap.String("query", utils.Truncate(query, logQueryLen)),
		zap.Int("chunks", len(chunks)))
	return chunks
}

// Close releases the bound embedder and store, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.embedder != nil {
		err = s.embedder.Close()
		s.embedder = nil
	}
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
		s.store = nil
	}
	return err
}
