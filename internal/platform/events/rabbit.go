package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"libraryapi/internal/book"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the JSON body of every published message. The routing key is
// the event type.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   book.Book `json:"payload"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publishes book events to a durable topic exchange.
type RabbitPublisher struct {
	conn     *amqp.Connection
	exchange string
	now      func() time.Time

	mu sync.Mutex
	ch channel
}

// DialRabbit connects to the broker at url and declares the exchange.
func DialRabbit(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := newRabbitPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch channel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: exchange, now: time.Now}
}

func (p *RabbitPublisher) Publish(ctx context.Context, eventType string, b book.Book) error {
	ts := p.now().UTC()
	body, err := json.Marshal(Event{Type: eventType, Timestamp: ts, Payload: b})
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    b.ID,
		Timestamp:    ts,
		Type:         eventType,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
