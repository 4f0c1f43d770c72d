package repository

import (
	"context"

	"danicandles/internal/domain/model"
)

// 管理操作の履歴。追記のみで更新・削除はしない。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//1つのリソース（注文など）の履歴を古い順に返す
	ListForResource(ctx context.Context, resourceType model.AuditResourceType, resourceID string, limit int) ([]model.AuditLog, error)
}
