package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldComponent, "workflow-manager"))

	message := m.classifyStageFailure(stageName, stageErr)
	item.SetFailed(message)

	logger.Error("stage failed",
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		if stageName != "" {
			return fmt.Sprintf("%s failed without error detail", stageName)
		}
		return "workflow failed without error detail"
	}
	message := strings.TrimSpace(services.UserMessage(stageErr))
	if message == "" {
		message = fmt.Sprintf("%s failed", stageName)
	}
	return message
}
