package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ObjectExchange = "media.objects"

	ObjectUploadedRoutingKey = "object.uploaded"
	ObjectDeletedRoutingKey  = "object.deleted"
	ObjectMovedRoutingKey    = "object.moved"
)

// ObjectEvent is published after a successful mutation of the key-space.
type ObjectEvent struct {
	Type        string `json:"type"`
	Key         string `json:"key"`
	FromKey     string `json:"from_key,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Actor       string `json:"actor,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

type ObjectEventService struct {
	channel Channel
	now     func() time.Time
}

// InitObjectEventService declares the topic exchange. Queue binding is left
// to consumers.
func InitObjectEventService(channel Channel) (*ObjectEventService, error) {
	err := channel.ExchangeDeclare(
		ObjectExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare object exchange: %w", err)
	}

	return &ObjectEventService{channel: channel, now: time.Now}, nil
}

func (s *ObjectEventService) publish(ctx context.Context, routingKey string, event ObjectEvent) error {
	event.Type = routingKey
	event.Timestamp = s.now().Unix()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		ObjectExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (s *ObjectEventService) ObjectUploaded(ctx context.Context, key, contentType string, size int64, actor string) error {
	return s.publish(ctx, ObjectUploadedRoutingKey, ObjectEvent{Key: key, ContentType: contentType, Size: size, Actor: actor})
}

func (s *ObjectEventService) ObjectDeleted(ctx context.Context, key, actor string) error {
	return s.publish(ctx, ObjectDeletedRoutingKey, ObjectEvent{Key: key, Actor: actor})
}

func (s *ObjectEventService) ObjectMoved(ctx context.Context, fromKey, toKey, actor string) error {
	return s.publish(ctx, ObjectMovedRoutingKey, ObjectEvent{Key: toKey, FromKey: fromKey, Actor: actor})
}
