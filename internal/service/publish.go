package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/events"
)

// publish emits event after the write it describes has committed. Handler
// failures are logged and never undo the write.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}
