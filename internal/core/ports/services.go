package ports

import (
	"context"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishTopoUpdated(ctx context.Context, event *domain.TopoEvent) error
	PublishCragUpdated(ctx context.Context, cragID string) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeTopoUpdates(ctx context.Context, handler func(ctx context.Context, event *domain.TopoEvent) error) error
	SubscribeCragUpdates(ctx context.Context, handler func(ctx context.Context, cragID string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
