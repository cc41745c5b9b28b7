// Package events publishes run summaries to RabbitMQ so that downstream
// services (billing dashboards, alerting) learn about new Stripe links.
// Publishing is best effort: failures are logged and returned, and callers
// may ignore them without affecting the run.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/logging"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// RunCompleted is published after each family run.
type RunCompleted struct {
	RunID     string          `json:"run_id"`
	Family    string          `json:"family"`
	Commit    bool            `json:"commit"`
	Stats     reconcile.Stats `json:"stats"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher publishes run events.
type Publisher interface {
	Publish(ctx context.Context, event RunCompleted) error
	Close() error
}

// NewRunCompleted builds one event per family of a summary.
func NewRunCompleted(runID string, summary *reconcile.Summary, now time.Time) []RunCompleted {
	out := make([]RunCompleted, 0, len(summary.Families))
	for _, f := range summary.Families {
		out = append(out, RunCompleted{
			RunID:     runID,
			Family:    f.Family,
			Commit:    summary.Commit,
			Stats:     f.Stats,
			Timestamp: now.UTC(),
		})
	}
	return out
}

// Message encodes event as a persistent JSON publishing.
func Message(event RunCompleted) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		MessageId:    event.RunID + "-" + event.Family,
		Type:         constants.RunCompletedQueue,
		Body:         body,
	}, nil
}

// New returns an AMQP publisher, or a no-op Publisher when url is empty.
func New(url string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(constants.RunCompletedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQP{conn: conn, ch: ch, queue: constants.RunCompletedQueue}, nil
}

// AMQP publishes to a durable queue over the default exchange.
type AMQP struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// Publish implements Publisher.
func (p *AMQP) Publish(ctx context.Context, event RunCompleted) error {
	log := logging.FromContext(ctx)

	msg, err := Message(event)
	if err != nil {
		log.Warn().Err(err).Msg("Encoding run event failed")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.EventPublishTimeout)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		log.Warn().Err(err).Str("queue", p.queue).Msg("Publishing run event failed")
		return err
	}
	log.Debug().Str("queue", p.queue).Str("family", event.Family).Msg("Run event published")
	return nil
}

// Close closes the channel and the connection.
func (p *AMQP) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, RunCompleted) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
