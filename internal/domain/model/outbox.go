package model

import (
	"encoding/json"
	"time"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// outboxのtopic。email.* はメール送信、それ以外はイベント配信。
const (
	TopicEmailOrderConfirmation = "email.order_confirmation"
	TopicEmailOwnerNewOrder     = "email.owner_new_order"
	TopicEmailOrderShipped      = "email.order_shipped"
	TopicOrderPaid              = "order.paid"
	TopicOrderStatusChanged     = "order.status_changed"
)

const EmailTopicPrefix = "email."

type OutboxMessage struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic         string          `gorm:"type:varchar(100);not null;index" json:"topic"`
	Key           string          `gorm:"type:varchar(255);not null" json:"key"`
	Payload       json.RawMessage `gorm:"type:jsonb;not null" json:"payload"`
	DedupeKey     string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"dedupeKey"`
	Status        OutboxStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempts      int             `gorm:"not null;default:0" json:"attempts"`
	LastError     *string         `gorm:"type:text" json:"lastError,omitempty"`
	NextAttemptAt time.Time       `gorm:"not null;index" json:"nextAttemptAt"`
	CreatedAt     time.Time       `gorm:"not null" json:"createdAt"`
	SentAt        *time.Time      `json:"sentAt,omitempty"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }

// メール用payload
type EmailPayload struct {
	OrderID   string `json:"orderId"`
	Recipient string `json:"recipient"`
}

// ドメインイベント用payload
type OrderEventPayload struct {
	OrderID    string      `json:"orderId"`
	Status     OrderStatus `json:"status"`
	FromStatus OrderStatus `json:"fromStatus,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Stripe webhookの処理済みイベント（再配送の重複排除）
type WebhookEvent struct {
	EventID     string    `gorm:"type:varchar(255);primaryKey" json:"eventId"`
	EventType   string    `gorm:"type:varchar(100);not null" json:"eventType"`
	OrderID     *string   `gorm:"type:uuid" json:"orderId,omitempty"`
	ProcessedAt time.Time `gorm:"not null" json:"processedAt"`
}

func (WebhookEvent) TableName() string { return "processed_webhook_events" }
