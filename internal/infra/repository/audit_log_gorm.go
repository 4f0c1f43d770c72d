package repository

import (
	"context"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"

	"gorm.io/gorm"
)

const maxAuditHistory = 200

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)

func (r *AuditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

func (r *AuditLogGormRepository) ListForResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > maxAuditHistory {
		limit = maxAuditHistory
	}

	var history []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at asc").Order("id asc").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return []model.AuditLog{}, err
	}
	return history, nil
}
