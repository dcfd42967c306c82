package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/labyrinth/internal/queue"
)

// QueueSender publishes messages to a durable RabbitMQ queue and waits for
// the broker's publisher confirm.  A confirmed message is the broker's
// responsibility from then on; cmd/mailer performs the SMTP delivery.
type QueueSender struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueueSender(url, queueName string) *QueueSender {
	return &QueueSender{url: url, queue: queueName}
}

// Send publishes m as a persistent MailRequestedEvent.
func (q *QueueSender) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(queue.MailRequestedEvent{
		To:          m.To,
		Subject:     m.Subject,
		HTML:        m.HTML,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ch, err := q.channel()
	if err != nil {
		return err
	}
	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // store on disk
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		q.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		q.reset()
		return fmt.Errorf("rabbitmq: confirm: %w", err)
	}
	if !acked {
		return errors.New("rabbitmq: broker rejected mail message")
	}
	return nil
}

// channel returns the cached confirm-mode channel, dialing on first use or
// after a failure.  Caller holds q.mu.
func (q *QueueSender) channel() (*amqp.Channel, error) {
	if q.ch != nil && !q.ch.IsClosed() {
		return q.ch, nil
	}
	q.reset()

	conn, err := amqp.Dial(q.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: confirm mode: %w", err)
	}
	q.conn, q.ch = conn, ch
	return ch, nil
}

func (q *QueueSender) reset() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
	q.conn, q.ch = nil, nil
}

// Close drops the broker connection.  It is safe to call more than once.
func (q *QueueSender) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reset()
	return nil
}

// Deliver adapts a Sender into the handler run by queue.Consumer for each
// MailRequestedEvent.
func Deliver(s Sender) queue.MailHandler {
	return func(ctx context.Context, ev queue.MailRequestedEvent) error {
		return s.Send(ctx, Message{To: ev.To, Subject: ev.Subject, HTML: ev.HTML})
	}
}
