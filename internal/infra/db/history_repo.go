package db

import (
	"context"

	"github.com/tokentalk/tokentalk/internal/domain"
	"gorm.io/gorm"
)

type PriceHistoryRepository struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(conn *gorm.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: conn}
}

func (r *PriceHistoryRepository) Record(ctx context.Context, samples []domain.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}
	models := make([]priceHistoryModel, 0, len(samples))
	for _, sample := range samples {
		models = append(models, priceHistoryModel{
			Symbol:    sample.Symbol,
			Price:     sample.Value.String(),
			Provider:  sample.Provider,
			SampledAt: sample.Timestamp,
		})
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

type TriggerLogRepository struct {
	db *gorm.DB
}

func NewTriggerLogRepository(conn *gorm.DB) *TriggerLogRepository {
	return &TriggerLogRepository{db: conn}
}

func (r *TriggerLogRepository) Record(ctx context.Context, alertID string, trigger domain.TriggerContext) error {
	model := alertTriggerModel{
		AlertID:     alertID,
		Symbol:      trigger.Symbol,
		Price:       trigger.Price.String(),
		TargetPrice: trigger.TargetPrice.String(),
		Condition:   string(trigger.Condition),
		TriggeredAt: trigger.ObservedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}
