package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"leadgate/internal/platform/kafka/consumer"
)

// Handler decodes lead notifications from the topic and passes them on.
// Messages with another event_type are acknowledged and ignored.
type Handler struct {
	next func(ctx context.Context, n Notification) error
}

func NewHandler(next func(ctx context.Context, n Notification) error) *Handler {
	return &Handler{next: next}
}

func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	if t := msg.Headers["event_type"]; t != "" && t != EventLeadSubmitted {
		return nil
	}
	var n Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		return fmt.Errorf("%w: decode lead notification at offset %d: %v", consumer.ErrPoison, msg.Offset, err)
	}
	if n.SubmissionID == "" {
		return fmt.Errorf("%w: lead notification without submission id", consumer.ErrPoison)
	}
	return h.next(ctx, n)
}
