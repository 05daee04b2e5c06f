package service

import (
	"context"

	"learnquest/internal/domain"
	"learnquest/internal/logger"

	"go.uber.org/zap"
)

// publish sends an event after its ledger change committed. Delivery failures
// are logged and never undo or fail the request.
func publish(ctx context.Context, publisher domain.EventPublisher, event domain.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("userID", event.UserID),
			zap.Error(err))
	}
}
