package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/tokentalk/tokentalk/internal/domain"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(conn *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: conn}
}

func (r *NotificationRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	model := notificationModel{
		ID:      record.ID,
		AlertID: record.AlertID,
		UserID:  record.UserID,
		Channel: record.Channel,
		Status:  string(record.Status),
		Error:   record.Error,
		SentAt:  record.SentAt,
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	return nil
}

func (r *NotificationRepository) ListByAlert(ctx context.Context, alertID string) ([]domain.NotificationRecord, error) {
	var models []notificationModel
	if err := r.db.WithContext(ctx).Where("alert_id = ?", alertID).Order("created_at").Find(&models).Error; err != nil {
		return nil, err
	}
	records := make([]domain.NotificationRecord, 0, len(models))
	for _, model := range models {
		records = append(records, domain.NotificationRecord{
			ID:        model.ID,
			AlertID:   model.AlertID,
			UserID:    model.UserID,
			Channel:   model.Channel,
			Status:    domain.DeliveryStatus(model.Status),
			Error:     model.Error,
			SentAt:    model.SentAt,
			CreatedAt: model.CreatedAt,
		})
	}
	return records, nil
}

type PushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(conn *gorm.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{db: conn}
}

func (r *PushSubscriptionRepository) Save(ctx context.Context, sub *domain.PushSubscription) error {
	model := pushSubscriptionModel{
		ID:       sub.ID,
		UserID:   sub.UserID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	}
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	// Re-subscribing from the same browser replaces the stored keys.
	err := r.db.WithContext(ctx).
		Where("endpoint = ?", sub.Endpoint).
		Assign(map[string]interface{}{
			"user_id": sub.UserID,
			"p256dh":  sub.P256dh,
			"auth":    sub.Auth,
		}).
		FirstOrCreate(&model).Error
	if err != nil {
		return err
	}
	sub.ID = model.ID
	sub.CreatedAt = model.CreatedAt
	return nil
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	var models []pushSubscriptionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	subs := make([]domain.PushSubscription, 0, len(models))
	for _, model := range models {
		subs = append(subs, domain.PushSubscription{
			ID:        model.ID,
			UserID:    model.UserID,
			Endpoint:  model.Endpoint,
			P256dh:    model.P256dh,
			Auth:      model.Auth,
			CreatedAt: model.CreatedAt,
		})
	}
	return subs, nil
}
