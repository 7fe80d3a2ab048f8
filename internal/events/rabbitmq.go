package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/models"
)

// Notification is the message consumed by the notification service.
type Notification struct {
	RecipientID   string      `json:"recipientId"`
	RecipientRole models.Role `json:"recipientRole"`
	Event         Event       `json:"event"`
}

// channel is the subset of *amqp.Channel the sink uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NotificationSink publishes one persistent message per recipient to a
// durable RabbitMQ queue.
type NotificationSink struct {
	ch    channel
	queue string
	log   *zap.Logger
	mu    sync.Mutex
}

// NewNotificationSink opens a channel on conn and declares queue.
func NewNotificationSink(conn *amqp.Connection, queue string, log *zap.Logger) (*NotificationSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	return &NotificationSink{ch: ch, queue: queue, log: log}, nil
}

func (s *NotificationSink) Name() string { return "notification" }

func (s *NotificationSink) Handle(ctx context.Context, e Event) error {
	for _, role := range Recipients(e) {
		n := Notification{RecipientRole: role, Event: e}
		switch role {
		case models.RoleDoctor:
			n.RecipientID = e.DoctorID
		case models.RolePatient:
			n.RecipientID = e.PatientID
		}

		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encoding notification: %w", err)
		}

		msg := amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID + ":" + string(role),
			Type:         string(e.Type),
		}

		// amqp channels are not safe for concurrent publishing
		s.mu.Lock()
		err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, msg)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("publishing to %s: %w", s.queue, err)
		}

		s.log.Debug("notification published",
			zap.String("queue", s.queue),
			zap.String("recipientId", n.RecipientID),
			zap.String("type", string(e.Type)),
		)
	}
	return nil
}
