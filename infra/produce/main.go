package produce

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the producers use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Produce struct {
	ObjectService *ObjectEventService
}

func InitProduce(channel Channel) (*Produce, error) {
	objectService, err := InitObjectEventService(channel)
	if err != nil {
		return nil, err
	}

	return &Produce{
		ObjectService: objectService,
	}, nil
}
