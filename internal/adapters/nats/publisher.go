package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// Subjects. The crag ID is the last token so sessions can subscribe per crag.
const (
	SubjectTopoUpdated = "topo.updated."
	SubjectCragUpdated = "crag.updated."
)

// TopoSubject is the subject topo edits of a crag are published on.
func TopoSubject(cragID string) string { return SubjectTopoUpdated + cragID }

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "TOPO_EVENTS",
			Subjects:  []string{SubjectTopoUpdated + ">", SubjectCragUpdated + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishTopoUpdated announces a topo line edit on topo.updated.<crag_id>.
func (p *Publisher) PublishTopoUpdated(ctx context.Context, ev *domain.TopoEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(TopoSubject(ev.CragID), data, nats.Context(ctx))
	return err
}

// PublishCragUpdated announces a crag change on crag.updated.<crag_id>.
func (p *Publisher) PublishCragUpdated(ctx context.Context, cragID string) error {
	_, err := p.js.Publish(SubjectCragUpdated+cragID, []byte(cragID), nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
