package history

import (
	"context"
	"sync"
	"time"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

type threadKey struct {
	tenantID string
	threadID string
}

// MemoryStore keeps threads in process memory. Used for development and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	threads      map[threadKey][]models.ChatMessage
	maxPerThread int
	now          func() time.Time
}

// NewMemoryStore creates a store that keeps at most maxPerThread messages per
// thread (unbounded when <= 0).
func NewMemoryStore(maxPerThread int) *MemoryStore {
	return &MemoryStore{
		threads:      make(map[threadKey][]models.ChatMessage),
		maxPerThread: maxPerThread,
		now:          time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Append(_ context.Context, threadID, tenantID string, role models.ChatRole, content string) error {
	if err := validateKey(threadID, tenantID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := threadKey{tenantID: tenantID, threadID: threadID}
	msgs := append(s.threads[key], models.ChatMessage{Role: role, Content: content, CreatedAt: s.now().UTC()})
	if s.maxPerThread > 0 && len(msgs) > s.maxPerThread {
		msgs = msgs[len(msgs)-s.maxPerThread:]
	}
	s.threads[key] = msgs
	return nil
}

func (s *MemoryStore) Fetch(_ context.Context, threadID, tenantID string, limit int) ([]models.ChatMessage, error) {
	if err := validateKey(threadID, tenantID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.threads[threadKey{tenantID: tenantID, threadID: threadID}]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
