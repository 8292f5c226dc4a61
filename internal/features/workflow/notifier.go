package workflow

import (
	"context"

	"go-crm-core/internal/models"

	"go.uber.org/zap"
)

// Notification is what a send_notification action asks to deliver.
type Notification struct {
	UserID  string
	Title   string
	Message string
	Record  models.Ref
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.logger.Info("Workflow notification: "+msg.Message,
		zap.String("user_id", msg.UserID),
		zap.String("title", msg.Title),
		zap.Stringer("record", msg.Record))
	return nil
}
