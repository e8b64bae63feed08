package storage

import (
	"context"
	"sync"

	"mpp-chat-portal/internal/models"
)

type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string][]models.ChatTurn
}

// ------------------------------------------------------------------------------------------------------
// NewMemoryStore creates a new in-memory transcript store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[string][]models.ChatTurn),
	}
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) Append(_ context.Context, conversationID string, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[conversationID] = append(s.transcripts[conversationID], turn)
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) ReplaceLast(_ context.Context, conversationID string, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.transcripts[conversationID]
	if len(turns) == 0 {
		return ErrEmptyTranscript
	}
	turns[len(turns)-1] = turn
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) List(_ context.Context, conversationID string) ([]models.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.transcripts[conversationID]
	result := make([]models.ChatTurn, len(turns))
	copy(result, turns)
	return result, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transcripts, conversationID)
	return nil
}
