package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doorstep/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDispatcher publishes notification requests to a topic exchange with
// routing key notification.<kind>.
type AMQPDispatcher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPDispatcher(url, exchange string) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPDispatcher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (d *AMQPDispatcher) Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error {
	body, err := json.Marshal(Envelope{To: to, Kind: kind, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return d.ch.PublishWithContext(ctx, d.exchange, RoutingKey(kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (d *AMQPDispatcher) Close() error {
	if d.ch != nil {
		_ = d.ch.Close()
	}
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
