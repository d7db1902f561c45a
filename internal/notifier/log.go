package notifier

import (
	"context"
	"log/slog"

	"github.com/hotelops/taskrouter/internal/domain"
)

// LogNotifier writes events to the structured log. Used when no Redis
// outbox is configured, and by tests.
type LogNotifier struct{}

// Notify logs the event. It never fails.
func (LogNotifier) Notify(ctx context.Context, event domain.Event) error {
	slog.Info("task notification",
		"event", string(event.Type),
		"task_id", event.TaskID,
		"department", string(event.Department),
		"status", string(event.Status),
	)
	return nil
}
