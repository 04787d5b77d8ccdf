package ports

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// EventPublisher publishes query lifecycle events to a message broker.
// Publishing is best-effort: failures are logged and swallowed.
type EventPublisher interface {
	PublishQueryResolved(ctx context.Context, evt *domain.QueryEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching of collaborator responses.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the user memory/preference collaborator. Both operations
// are best-effort and must never block the critical path.
type MemoryStore interface {
	GetContext(ctx context.Context, userID string) (*domain.MemoryContext, error)
	AddMemory(ctx context.Context, userID string, rec domain.MemoryRecord) error
}
