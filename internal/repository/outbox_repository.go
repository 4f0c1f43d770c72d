package repository

import (
	"context"
	"time"

	"danicandles/internal/domain/model"
)

// 送信待ちの副作用（メール・イベント）を永続化する。
type OutboxRepository interface {
	//dedupe_keyが既にあれば false を返して何もしない
	Enqueue(ctx context.Context, msg model.OutboxMessage) (bool, error)

	//期限が来たpendingを取り出し、attemptsを+1してleaseの分だけ次回時刻を延ばす
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]model.OutboxMessage, error)

	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkRetry(ctx context.Context, id int64, lastErr string, next time.Time) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}

// webhookの受信箱
type WebhookEventRepository interface {
	//初回なら true。既に処理済みなら false
	Record(ctx context.Context, ev model.WebhookEvent) (bool, error)
}
