package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/pickup/internal/adapter/logger"
	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	exchanges  []string
	published  []published
	bindings   []string
	deliveries chan amqp.Delivery
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	return Queue{Name: "amq.gen-test"}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, name+"|"+key+"|"+exchange)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error { return nil }

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func (f *fakeChannel) NotifyClose() <-chan *amqp.Error {
	return make(chan *amqp.Error)
}

type fakeConnection struct {
	ch  *fakeChannel
	err error
}

func (f *fakeConnection) Channel() (Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func (f *fakeConnection) Close() error   { return nil }
func (f *fakeConnection) IsClosed() bool { return false }

func TestPublisher_RoutesByEventKind(t *testing.T) {
	ch := &fakeChannel{}
	pub := NewPublisher(&fakeConnection{ch: ch})
	ctx := context.Background()

	require.NoError(t, pub.PublishOrderPlaced(ctx, interfaces.OrderPlacedMessage{
		OrderID:    "ORD-20240102-ABCDEF12",
		PickupDate: "2024-01-02",
		PickupTime: "10:00",
		Status:     domain.StatusPending,
	}))
	require.NoError(t, pub.PublishStatusChanged(ctx, interfaces.StatusChangedMessage{
		OrderID:   "ORD-20240102-ABCDEF12",
		OldStatus: domain.StatusPending,
		NewStatus: domain.StatusCompleted,
	}))

	require.Len(t, ch.published, 2)
	assert.Equal(t, ExchangeOrders, ch.published[0].exchange)
	assert.Equal(t, interfaces.RoutingOrderPlaced, ch.published[0].key)
	assert.Equal(t, interfaces.RoutingOrderStatusChanged, ch.published[1].key)
	assert.Equal(t, uint8(amqp.Persistent), ch.published[0].msg.DeliveryMode)
	assert.Contains(t, ch.exchanges, ExchangeOrders+":topic")

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.published[0].msg.Body, &body))
	assert.Equal(t, "10:00", body["pickup_time"])
	assert.True(t, ch.closed)
}

func TestPublisher_ChannelError(t *testing.T) {
	pub := NewPublisher(&fakeConnection{err: errors.New("connection is closed")})

	err := pub.PublishOrderPlaced(context.Background(), interfaces.OrderPlacedMessage{})
	assert.ErrorContains(t, err, "failed to open channel")
}

func TestConsumer_DeliversRoutingKey(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 1)}
	c := NewConsumer(&fakeConnection{ch: ch}, 1, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch.deliveries <- amqp.Delivery{RoutingKey: interfaces.RoutingOrderPlaced, Body: []byte(`{"order_id":"x"}`)}

	got := make(chan string, 1)
	go func() {
		_ = c.ConsumeOrderEvents(ctx, func(_ context.Context, key string, body []byte) error {
			got <- key + " " + string(body)
			cancel()
			return nil
		})
	}()

	select {
	case v := <-got:
		assert.Equal(t, `order.placed {"order_id":"x"}`, v)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
	assert.Contains(t, ch.bindings, "amq.gen-test|order.#|"+ExchangeOrders)
}

func TestNopPublisher(t *testing.T) {
	pub := NewNopPublisher()
	assert.NoError(t, pub.PublishOrderPlaced(context.Background(), interfaces.OrderPlacedMessage{}))
	assert.NoError(t, pub.PublishStatusChanged(context.Background(), interfaces.StatusChangedMessage{}))
}
