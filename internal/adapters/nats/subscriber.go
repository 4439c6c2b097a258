package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber with plain NATS fan-out: every
// subscriber sees every event, which is what live sessions need. Sessions that
// miss an event while disconnected reload on reconnect anyway.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber opens its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn}, nil
}

// SubscribeSitesChanged calls handler for every sites.changed event until ctx is
// done. JetStream publishes are also delivered to core subscribers of the subject.
func (s *Subscriber) SubscribeSitesChanged(ctx context.Context, handler func(ctx context.Context, event *domain.SitesChangedEvent) error) error {
	sub, err := s.conn.Subscribe(SubjectSitesChanged, func(msg *nats.Msg) {
		var ev domain.SitesChangedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("bad sites.changed payload", "error", err)
			return
		}
		if err := handler(ctx, &ev); err != nil {
			slog.Warn("sites.changed handler failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	context.AfterFunc(ctx, func() { _ = sub.Unsubscribe() })
	return nil
}

// Connected reports whether the connection is up.
func (s *Subscriber) Connected() bool {
	return s.conn.IsConnected()
}

// Close drains the connection.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
