package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"
)

// 送信はワーカーが行う。ここではoutboxに積むだけ。

func enqueueEmail(ctx context.Context, ob repo.OutboxRepository, topic string, orderID string, recipient string, dedupeKey string, now time.Time) error {
	payload, err := json.Marshal(model.EmailPayload{OrderID: orderID, Recipient: recipient})
	if err != nil {
		return err
	}
	if _, err := ob.Enqueue(ctx, model.OutboxMessage{
		Topic:         topic,
		Key:           orderID,
		Payload:       payload,
		DedupeKey:     dedupeKey,
		Status:        model.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}); err != nil {
		return fmt.Errorf("enqueue %s: %w", topic, err)
	}
	return nil
}

func enqueueOrderEvent(ctx context.Context, ob repo.OutboxRepository, topic string, ev model.OrderEventPayload, dedupeKey string) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := ob.Enqueue(ctx, model.OutboxMessage{
		Topic:         topic,
		Key:           ev.OrderID,
		Payload:       payload,
		DedupeKey:     dedupeKey,
		Status:        model.OutboxStatusPending,
		NextAttemptAt: ev.OccurredAt,
		CreatedAt:     ev.OccurredAt,
	}); err != nil {
		return fmt.Errorf("enqueue %s: %w", topic, err)
	}
	return nil
}

func confirmationDedupeKey(orderID string) string { return "confirmation:" + orderID }
func ownerDedupeKey(orderID string) string        { return "owner:" + orderID }
func shippedDedupeKey(orderID string) string      { return "shipped:" + orderID }
func paidEventDedupeKey(orderID string) string    { return "order.paid:" + orderID }

func statusEventDedupeKey(orderID string, to model.OrderStatus) string {
	return "order.status_changed:" + orderID + ":" + string(to)
}
