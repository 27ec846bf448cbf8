// Package broker publishes lot events onto a RabbitMQ queue.
package broker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RMQueue struct {
	connection *amqp.Connection
	channel    publishChannel
	queueName  string
}

func NewRMQueue(url string, queueName string) (*RMQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	queue, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RMQueue{connection: conn, channel: ch, queueName: queue.Name}, nil
}

func (q *RMQueue) Close() {
	q.channel.Close()
	if q.connection != nil {
		q.connection.Close()
	}
}

// Publish sends event as a persistent JSON message to the default exchange.
func (q *RMQueue) Publish(ctx context.Context, event domain.LotEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.channel.PublishWithContext(ctx, "", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
