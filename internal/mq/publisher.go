package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeItemEnqueued MessageType = "item.enqueued"
	MessageTypeItemAssigned MessageType = "item.assigned"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ItemEnqueuedPayload — payload для события о новом item в очереди.
type ItemEnqueuedPayload struct {
	ItemID   string `json:"item_id"`
	Type     string `json:"type"`
	Priority int    `json:"priority"`
}

// ItemAssignedPayload — payload для события о назначении item воркеру.
type ItemAssignedPayload struct {
	ItemID     string  `json:"item_id"`
	WorkerID   string  `json:"worker_id"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishItemEnqueued публикует событие о новом item в очереди.
// Потребитель: Coordinator.
func (p *Publisher) PublishItemEnqueued(ctx context.Context, payload ItemEnqueuedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeItemEnqueued,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeItems, RoutingKeyEnqueued, msg)
}

// PublishItemAssigned публикует событие о назначении item воркеру.
// Потребители: внешние подписчики (воркеры).
func (p *Publisher) PublishItemAssigned(ctx context.Context, payload ItemAssignedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeItemAssigned,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeItems, RoutingKeyAssigned, msg)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
