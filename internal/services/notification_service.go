package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/logger"
	"stockbank/internal/models"
	"stockbank/internal/pagination"
)

// notificationService stores in-app notifications.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// Notify stores a notification for userID. Like audit logging it never fails
// the caller; errors are only logged.
func (s *notificationService) Notify(userID string, kind models.NotificationKind, title, body string) {
	n := &models.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}
	if err := s.db.Create(n).Error; err != nil {
		logger.Get().Errorw("failed to create notification",
			"error", err,
			"user_id", userID,
			"kind", kind,
		)
	}
}

// GetUserNotifications lists a user's notifications, newest first.
func (s *notificationService) GetUserNotifications(userID string, unreadOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read_at IS NULL")
	}

	result, err := pagination.Fetch[models.Notification](base, page, "created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// MarkRead marks a notification as read. Marking twice keeps the first read time.
func (s *notificationService) MarkRead(userID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if n.ReadAt == nil {
		now := time.Now()
		if err := s.db.Model(&n).Update("read_at", now).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		n.ReadAt = &now
	}
	return &n, nil
}
