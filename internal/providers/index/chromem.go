package index

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/alexyujiuqiao/IM/internal/core"
)

// ChromemIndex implements the SemanticIndex collaborator on chromem-go,
// an embedded pure-Go vector database. Each user gets an isolated
// collection; embeddings are supplied by the injected Embedder.
type ChromemIndex struct {
	db          *chromem.DB
	embedder    core.Embedder
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

func NewChromemIndex(embedder core.Embedder) *ChromemIndex {
	return &ChromemIndex{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *ChromemIndex) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	col, err := s.db.CreateCollection(fmt.Sprintf("user_%s", userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

func (s *ChromemIndex) Upsert(ctx context.Context, userID, passage string) error {
	passage = strings.TrimSpace(passage)
	if passage == "" {
		return nil
	}

	col, err := s.collection(userID)
	if err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, passage)
	if err != nil {
		return fmt.Errorf("embed passage: %w", err)
	}

	doc := chromem.Document{
		ID:        uuid.NewString(),
		Content:   passage,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":    userID,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (s *ChromemIndex) Search(ctx context.Context, userID, query string, topK int) ([]core.Passage, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem rejects nResults larger than the collection; shrink until
	// the query succeeds or the collection turns out to be empty.
	var results []chromem.Result
	for limit := topK; limit >= 1; limit-- {
		results, err = col.QueryEmbedding(ctx, embedding, limit, nil, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	passages := make([]core.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, core.Passage{
			Text:  r.Content,
			Score: r.Similarity,
		})
	}
	return passages, nil
}

func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") ||
		strings.Contains(msg, "number of documents")
}
