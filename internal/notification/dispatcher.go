// Package notification hands customer notifications to the external notifier.
// Rendering and delivery happen downstream; this side only publishes requests.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"doorstep/internal/domain"
)

// Dispatcher is the send(to, kind, data) contract.
type Dispatcher interface {
	Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error
}

// Envelope is the message body published for the notifier.
type Envelope struct {
	To     string                  `json:"to"`
	Kind   domain.NotificationKind `json:"kind"`
	Data   map[string]any          `json:"data,omitempty"`
	SentAt time.Time               `json:"sent_at"`
}

func RoutingKey(kind domain.NotificationKind) string {
	return "notification." + string(kind)
}

// LogDispatcher only logs; used when no broker is configured.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(_ context.Context, to string, kind domain.NotificationKind, data map[string]any) error {
	d.log.Info("notification queued", "kind", kind, "to", maskEmail(to), "booking_ref", data["booking_reference"])
	return nil
}

type store interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Recorder bounds each send with a timeout and writes an audit row per attempt.
type Recorder struct {
	next    Dispatcher
	store   store
	timeout time.Duration
	log     *slog.Logger
}

func NewRecorder(next Dispatcher, store store, timeout time.Duration, log *slog.Logger) *Recorder {
	return &Recorder{next: next, store: store, timeout: timeout, log: log}
}

func (r *Recorder) Send(ctx context.Context, to string, kind domain.NotificationKind, data map[string]any) error {
	sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	sendErr := r.next.Send(sendCtx, to, kind, data)

	ref, _ := data["booking_reference"].(string)
	row := &domain.Notification{
		Recipient:        to,
		Kind:             kind,
		BookingReference: ref,
		Data:             data,
		Status:           domain.NotificationSent,
	}
	if sendErr != nil {
		row.Status = domain.NotificationFailed
		row.Error = sendErr.Error()
	}
	if err := r.store.Create(ctx, row); err != nil {
		r.log.Warn("notification audit write failed", "kind", kind, "booking_ref", ref, "error", err)
	}

	if sendErr != nil {
		return fmt.Errorf("dispatch %s: %w", kind, sendErr)
	}
	return nil
}

func maskEmail(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			if i <= 1 {
				return "*" + email[i:]
			}
			return email[:1] + "***" + email[i:]
		}
	}
	return "***"
}
