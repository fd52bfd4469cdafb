package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/autoecole/enrollment-service/internal/models"
	"github.com/autoecole/enrollment-service/internal/repositories"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, notification *models.Notification) error {
	return translateError(n.db.WithContext(ctx).Create(notification).Error, "create notification")
}

func (n *NotificationPostgreSQL) ListByUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := n.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if filters.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count notifications")
	}

	var notifications []*models.Notification
	query = applyPaginationAndSort(query, "notifications", "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, translateError(err, "list notifications")
	}
	return notifications, total, nil
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, translateError(err, "count unread notifications")
}

func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	result := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at)
	if result.Error != nil {
		return translateError(result.Error, "mark notification read")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
