package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	now  func() time.Time
}

// DialAMQP は接続してキューを宣言する
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	p, err := NewAMQPPublisher(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// publish時にキューが無くて失敗しないように先に宣言
	for _, q := range []string{OrderPlacedQueue, OrderStatusChangedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &AMQPPublisher{ch: ch, now: time.Now}, nil
}

func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	body, err := json.Marshal(newEnvelope(OrderPlacedQueue, ev.OrderID, ev, p.now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", OrderPlacedQueue, err)
	}
	return p.publishJSON(ctx, OrderPlacedQueue, body)
}

func (p *AMQPPublisher) PublishOrderStatusChanged(ctx context.Context, ev OrderStatusChanged) error {
	body, err := json.Marshal(newEnvelope(OrderStatusChangedQueue, ev.OrderID, ev, p.now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", OrderStatusChangedQueue, err)
	}
	return p.publishJSON(ctx, OrderStatusChangedQueue, body)
}

func (p *AMQPPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // キュー名をそのまま使う
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
