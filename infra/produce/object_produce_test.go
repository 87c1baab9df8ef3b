package produce

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	declareErr error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.published = append(f.published, published{exchange, key, msg})
	return nil
}

func TestInitProduce_DeclaresExchange(t *testing.T) {
	ch := &fakeChannel{}
	p, err := InitProduce(ch)
	require.NoError(t, err)
	require.NotNil(t, p.ObjectService)
	assert.Equal(t, []string{"media.objects:topic"}, ch.declared)
}

func TestInitProduce_DeclareFailure(t *testing.T) {
	_, err := InitProduce(&fakeChannel{declareErr: errors.New("closed")})
	assert.ErrorContains(t, err, "closed")
}

func TestObjectMoved_Payload(t *testing.T) {
	ch := &fakeChannel{}
	svc, err := InitObjectEventService(ch)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, svc.ObjectMoved(context.Background(), "orders/1/a.pdf", "orders/2/a.pdf", "user-7"))
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, ObjectExchange, got.exchange)
	assert.Equal(t, ObjectMovedRoutingKey, got.key)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)

	var event ObjectEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &event))
	assert.Equal(t, ObjectEvent{
		Type:      "object.moved",
		Key:       "orders/2/a.pdf",
		FromKey:   "orders/1/a.pdf",
		Actor:     "user-7",
		Timestamp: 1700000000,
	}, event)
}
