package repository

import (
	"context"
	"time"

	"danicandles/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxGormRepository struct {
	db *gorm.DB
}

func NewOutboxGormRepository(db *gorm.DB) *OutboxGormRepository {
	return &OutboxGormRepository{db: db}
}

// dedupe_key の一意制約で二重登録を防ぐ
func (r *OutboxGormRepository) Enqueue(ctx context.Context, msg model.OutboxMessage) (bool, error) {
	now := time.Now()
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = now
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedupe_key"}}, DoNothing: true}).
		Create(&msg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 複数ワーカーが同じ行を取らないよう SKIP LOCKED で取り出す。
// 取り出した行は lease の間だけ next_attempt_at を先に送るので、
// ワーカーが落ちても lease 経過後に再度拾われる。
func (r *OutboxGormRepository) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.OutboxMessage, error) {
	var msgs []model.OutboxMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", model.OutboxStatusPending, now).
			Order("next_attempt_at asc").Order("id asc").
			Limit(limit).
			Find(&msgs).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(msgs))
		for _, m := range msgs {
			ids = append(ids, m.ID)
		}
		leaseUntil := now.Add(lease)
		if err := leaseClaimed(tx, ids, leaseUntil); err != nil {
			return err
		}
		for i := range msgs {
			msgs[i].Attempts++
			msgs[i].NextAttemptAt = leaseUntil
		}
		return nil
	})
	if err != nil {
		return []model.OutboxMessage{}, err
	}
	return msgs, nil
}

// 試行回数を数え、lease が切れるまで他のワーカーから見えなくする
func leaseClaimed(tx *gorm.DB, ids []int64, until time.Time) error {
	return tx.Model(&model.OutboxMessage{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"next_attempt_at": until,
		}).Error
}

func (r *OutboxGormRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxStatusSent,
			"sent_at":    at,
			"last_error": nil,
		}).Error
}

func (r *OutboxGormRepository) MarkRetry(ctx context.Context, id int64, lastErr string, next time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_error":      lastErr,
			"next_attempt_at": next,
		}).Error
}

func (r *OutboxGormRepository) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxStatusFailed,
			"last_error": lastErr,
		}).Error
}
