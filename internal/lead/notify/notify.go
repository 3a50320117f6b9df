// Package notify tells the sales team about new leads.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"leadgate/internal/lead/models"
	"leadgate/internal/platform/kafka/producer"
	"leadgate/internal/platform/privacy"
)

// EventLeadSubmitted is the event_type header of lead notifications.
const EventLeadSubmitted = "lead.submitted"

// Notification describes one accepted lead.
type Notification struct {
	SubmissionID string         `json:"submissionId"`
	Product      models.Product `json:"product"`
	ProductLabel string         `json:"productLabel"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Contact      models.Contact `json:"contact"`
	Payload      any            `json:"payload"`
	// Persisted is false when the visitor asked for no CMS copy; the
	// notification is then the only copy of the lead.
	Persisted       bool   `json:"persisted"`
	PersistEndpoint string `json:"persistEndpoint,omitempty"`
}

// Producer is the part of the Kafka producer the notifier needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaNotifier publishes notifications to a topic keyed by submission id.
type KafkaNotifier struct {
	producer Producer
	topic    string
}

func NewKafkaNotifier(p Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: p, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, notification Notification) error {
	value, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal lead notification: %w", err)
	}
	msg := &producer.Message{
		Topic: n.topic,
		Key:   []byte(notification.SubmissionID),
		Value: value,
		Headers: map[string]string{
			"event_type": EventLeadSubmitted,
			"product":    string(notification.Product),
		},
	}
	if err := n.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("publish lead notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log with contact details masked.
// Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "lead received",
		"submission_id", notification.SubmissionID,
		"product", notification.Product,
		"persisted", notification.Persisted,
		"email", privacy.MaskEmail(notification.Contact.Email),
		"phone", privacy.MaskPhone(notification.Contact.Telephone),
	)
	return nil
}
