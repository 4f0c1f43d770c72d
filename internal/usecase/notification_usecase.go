package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"danicandles/internal/domain/model"
	"danicandles/internal/email"
	"danicandles/internal/logkey"
	repo "danicandles/internal/repository"
)

// 再試行しても成功しない（注文が無い、topicが不明など）
var ErrUndeliverable = errors.New("undeliverable notification")

var topicKinds = map[string]email.Kind{
	model.TopicEmailOrderConfirmation: email.KindConfirmation,
	model.TopicEmailOwnerNewOrder:     email.KindOwnerNewOrder,
	model.TopicEmailOrderShipped:      email.KindShipped,
}

type NotificationUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	sender     EmailSender
	from       string
	siteURL    string
}

func NewNotificationUsecase(orders repo.OrderRepository, orderItems repo.OrderItemRepository, sender EmailSender, from string, siteURL string) *NotificationUsecase {
	return &NotificationUsecase{
		orders:     orders,
		orderItems: orderItems,
		sender:     sender,
		from:       from,
		siteURL:    siteURL,
	}
}

// Deliver はoutboxの1件をメールにして送る。注文と明細は送信時点のものを読む。
// 戻り値はプロバイダのメッセージID。
func (u *NotificationUsecase) Deliver(ctx context.Context, topic string, payload []byte) (string, error) {
	kind, ok := topicKinds[topic]
	if !ok {
		return "", fmt.Errorf("%w: unknown topic %q", ErrUndeliverable, topic)
	}

	var p model.EmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("%w: bad payload: %v", ErrUndeliverable, err)
	}
	if p.OrderID == "" || p.Recipient == "" {
		return "", fmt.Errorf("%w: payload missing order id or recipient", ErrUndeliverable)
	}

	o, err := u.orders.FindByID(ctx, p.OrderID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", fmt.Errorf("%w: order %s not found", ErrUndeliverable, p.OrderID)
	}
	if err != nil {
		return "", fmt.Errorf("load order: %w", err)
	}
	items, err := u.orderItems.ListByOrderID(ctx, p.OrderID)
	if err != nil {
		return "", fmt.Errorf("load order items: %w", err)
	}

	rendered, err := email.Render(kind, email.NewOrderView(o, items, u.siteURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}

	id, err := u.sender.Send(ctx, EmailMessage{
		From:    u.from,
		To:      []string{p.Recipient},
		Subject: rendered.Subject,
		Text:    rendered.Text,
		HTML:    rendered.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("send %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "email sent",
		slog.String(logkey.OrderID, p.OrderID),
		slog.String(logkey.Topic, topic),
		slog.String("message_id", id))
	return id, nil
}
