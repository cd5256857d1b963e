package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const conversationTTL = 24 * time.Hour

// HistoryStore persists per-conversation chat history between turns.
type HistoryStore interface {
	Save(ctx context.Context, conversationID string, history []ChatMessage) error
	Load(ctx context.Context, conversationID string) ([]ChatMessage, error)
}

// RedisHistoryStore keeps conversation history in Redis with a 24 hour TTL.
// An unknown conversation loads as empty history, so expired conversations
// simply start over.
type RedisHistoryStore struct {
	redis *redis.Client
}

func NewRedisHistoryStore(client *redis.Client) *RedisHistoryStore {
	if client == nil {
		panic("agent: redis client cannot be nil")
	}
	return &RedisHistoryStore{redis: client}
}

func (s *RedisHistoryStore) Save(ctx context.Context, conversationID string, history []ChatMessage) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("agent: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(conversationID), data, conversationTTL).Err(); err != nil {
		return fmt.Errorf("agent: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	data, err := s.redis.Get(ctx, conversationKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("agent: failed to load history: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("agent: failed to decode history: %w", err)
	}
	return history, nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

// MemoryHistoryStore keeps conversation history in process memory. Used by
// the CLI, where a single conversation lives and dies with the process.
type MemoryHistoryStore struct {
	mu       sync.Mutex
	sessions map[string][]ChatMessage
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{sessions: make(map[string][]ChatMessage)}
}

func (s *MemoryHistoryStore) Save(ctx context.Context, conversationID string, history []ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(history))
	copy(out, history)
	s.sessions[conversationID] = out
	return nil
}

func (s *MemoryHistoryStore) Load(ctx context.Context, conversationID string) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[conversationID]
	if !ok {
		return nil, nil
	}
	out := make([]ChatMessage, len(stored))
	copy(out, stored)
	return out, nil
}
