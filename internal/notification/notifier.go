// Package notification greets newly registered users.
package notification

import (
	"context"

	"github.com/fathima-sithara/files-service/internal/models"
	"go.uber.org/zap"
)

type Notifier interface {
	Welcome(ctx context.Context, user *models.User) error
}

// LogNotifier only writes the greeting to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Welcome(_ context.Context, user *models.User) error {
	n.logger.Info("Welcome "+user.Email+"!", zap.String("user_id", user.ID.Hex()))
	return nil
}
