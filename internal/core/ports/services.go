package ports

import (
	"context"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSitesChanged(ctx context.Context, event *domain.SitesChangedEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSitesChanged(ctx context.Context, handler func(ctx context.Context, event *domain.SitesChangedEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// CacheInvalidator drops every cached entry under a key prefix.
type CacheInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
