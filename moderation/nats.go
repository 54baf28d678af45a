package moderation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "nexus.moderation.reports"

// Publisher is the part of *nats.Conn used to emit reports.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSQueue publishes every report as a JSON message on a NATS subject.
type NATSQueue struct {
	publisher Publisher
	subject   string
}

var _ Queue = (*NATSQueue)(nil)

func NewNATSQueue(publisher Publisher, subject string) *NATSQueue {
	if subject == "" {
		subject = DefaultSubject
	}

	return &NATSQueue{
		publisher: publisher,
		subject:   subject,
	}
}

// Connect dials the NATS server at url, falling back to nats.DefaultURL.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, nats.Name("nexus-moderation"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return nc, nil
}

func (q *NATSQueue) Enqueue(ctx context.Context, report Report) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue report: %w", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	err = q.publisher.Publish(q.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish report on %q: %w", q.subject, err)
	}

	return nil
}
