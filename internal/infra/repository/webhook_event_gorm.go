package repository

import (
	"context"
	"time"

	"danicandles/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventGormRepository struct {
	db *gorm.DB
}

func NewWebhookEventGormRepository(db *gorm.DB) *WebhookEventGormRepository {
	return &WebhookEventGormRepository{db: db}
}

// 主キー(event_id)の衝突 = 処理済み
func (r *WebhookEventGormRepository) Record(ctx context.Context, ev model.WebhookEvent) (bool, error) {
	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
