package repositories

import (
	"context"
	"time"

	"github.com/autoecole/enrollment-service/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
}
