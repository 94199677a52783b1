package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"libraryapi/internal/book"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "library.books")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	b := book.Book{ID: "10", Title: "Cassino Royale", Author: "Ian Fleming", ISBN: "U1234"}
	require.NoError(t, p.Publish(context.Background(), book.EventCreated, b))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "library.books", sent.exchange)
	assert.Equal(t, "book.created", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "10", sent.msg.MessageId)

	var ev Event
	require.NoError(t, json.Unmarshal(sent.msg.Body, &ev))
	assert.Equal(t, "book.created", ev.Type)
	assert.True(t, fixed.Equal(ev.Timestamp))
	assert.Equal(t, "U1234", ev.Payload.ISBN)
}

func TestRabbitPublisher_PublishError(t *testing.T) {
	p := newRabbitPublisher(&fakeChannel{err: amqp.ErrClosed}, "library.books")

	err := p.Publish(context.Background(), book.EventDeleted, book.Book{ID: "10"})
	assert.True(t, errors.Is(err, amqp.ErrClosed))
	assert.Contains(t, err.Error(), "book.deleted")
}

func TestRabbitPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := newRabbitPublisher(ch, "library.books")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitPublisher_ServiceIntegration(t *testing.T) {
	ch := &fakeChannel{}
	service := book.NewService(book.NewMemoryRepo(), book.WithEvents(newRabbitPublisher(ch, "library.books")))

	saved, err := service.Save(context.Background(), book.Book{Title: "Dr. No", Author: "Ian Fleming", ISBN: "U5678"})
	require.NoError(t, err)
	require.NoError(t, service.Delete(context.Background(), saved))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, book.EventCreated, ch.sent[0].key)
	assert.Equal(t, book.EventDeleted, ch.sent[1].key)
}
