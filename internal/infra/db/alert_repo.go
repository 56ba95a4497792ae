package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tokentalk/tokentalk/internal/domain"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(conn *gorm.DB) *AlertRepository {
	return &AlertRepository{db: conn}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	model := mapAlertToModel(*alert)
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if model.Status == "" {
		model.Status = string(domain.StatusActive)
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.Status = domain.AlertStatus(model.Status)
	alert.CreatedAt = model.CreatedAt
	alert.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, alertID string) (*domain.Alert, error) {
	var model alertModel
	if err := r.db.WithContext(ctx).Where("id = ?", alertID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	alert := mapAlertToDomain(model)
	return &alert, nil
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("status = ?", domain.StatusActive).Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID string) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, domain.StatusDeleted).
		Order("created_at").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) CountByUser(ctx context.Context, userID string) (map[domain.AlertStatus]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[domain.AlertStatus]int64, len(rows))
	for _, r := range rows {
		counts[domain.AlertStatus(r.Status)] = r.Count
	}
	return counts, nil
}

// MarkTriggered is the single check-and-set that guarantees at-most-once
// triggering: the UPDATE only matches while the alert is still active, so
// concurrent callers see RowsAffected 0 and back off.
func (r *AlertRepository) MarkTriggered(ctx context.Context, alertID string, at time.Time) (*domain.Alert, error) {
	result := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("id = ? AND status = ?", alertID, domain.StatusActive).
		Updates(map[string]interface{}{
			"status":       domain.StatusTriggered,
			"triggered_at": at,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&alertModel{}).Where("id = ?", alertID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInvalidTransition
	}
	return r.GetByID(ctx, alertID)
}

// UpdateStatus applies a user-driven transition. Re-arming a triggered or
// paused alert back to active clears triggered_at.
func (r *AlertRepository) UpdateStatus(ctx context.Context, userID, alertID string, status domain.AlertStatus) (*domain.Alert, error) {
	var model alertModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", alertID, userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	current := domain.AlertStatus(model.Status)
	if !domain.CanTransition(current, status) {
		return nil, domain.ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": status}
	if status == domain.StatusActive {
		updates["triggered_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("id = ? AND user_id = ? AND status = ?", alertID, userID, current).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrInvalidTransition
	}
	return r.GetByID(ctx, alertID)
}

func (r *AlertRepository) Delete(ctx context.Context, userID, alertID string) error {
	result := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("id = ? AND user_id = ? AND status <> ?", alertID, userID, domain.StatusDeleted).
		Update("status", domain.StatusDeleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapAlertsToDomain(models []alertModel) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, mapAlertToDomain(model))
	}
	return alerts
}

func mapAlertToDomain(model alertModel) domain.Alert {
	target, _ := decimal.NewFromString(model.TargetPrice)
	var channels []string
	if model.Channels != "" {
		channels = strings.Split(model.Channels, ",")
	}
	return domain.Alert{
		ID:          model.ID,
		UserID:      model.UserID,
		Symbol:      model.Symbol,
		Condition:   domain.AlertCondition(model.Condition),
		TargetPrice: target,
		Status:      domain.AlertStatus(model.Status),
		Channels:    channels,
		Message:     model.Message,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		TriggeredAt: model.TriggeredAt,
	}
}

func mapAlertToModel(alert domain.Alert) alertModel {
	return alertModel{
		ID:          alert.ID,
		UserID:      alert.UserID,
		Symbol:      alert.Symbol,
		Condition:   string(alert.Condition),
		TargetPrice: alert.TargetPrice.String(),
		Status:      string(alert.Status),
		Channels:    strings.Join(alert.Channels, ","),
		Message:     alert.Message,
		CreatedAt:   alert.CreatedAt,
		UpdatedAt:   alert.UpdatedAt,
		TriggeredAt: alert.TriggeredAt,
	}
}
