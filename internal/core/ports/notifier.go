package ports

import (
	"context"

	"github.com/innoshop/platform/internal/core/domain"
)

// Notifier hands a message to outbound delivery. It must not block on
// delivery; an error only means the message could not be queued.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// NotificationSender performs the actual delivery of one message.
type NotificationSender interface {
	Send(ctx context.Context, n domain.Notification) error
}
