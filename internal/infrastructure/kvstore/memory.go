package kvstore

import (
	"context"
	"sync"
	"time"

	"github.com/manorfm/identity-server/internal/domain"
	"go.uber.org/zap"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackend is a process local Backend guarded by a single mutex.
// Expired entries are invisible immediately and reclaimed by Run.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryBackend creates an empty in-process backend
func NewMemoryBackend(logger *zap.Logger) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		logger:  logger,
	}
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || entry.expired(m.now()) {
		return nil, domain.ErrNotFound
	}
	return entry.value, nil
}

func (m *MemoryBackend) GetDel(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.entries, key)
	if entry.expired(m.now()) {
		return nil, domain.ErrNotFound
	}
	return entry.value, nil
}

func (m *MemoryBackend) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (m *MemoryBackend) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done
func (m *MemoryBackend) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(); removed > 0 {
				m.logger.Debug("Swept expired entries", zap.Int("removed", removed))
			}
		}
	}
}
