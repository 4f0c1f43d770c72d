package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	repo "danicandles/internal/repository"

	"github.com/google/uuid"
)

// webhookの処理結果（ログ・メトリクス用）
const (
	WebhookOutcomePaid      = "paid"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeSkipped   = "skipped"
	WebhookOutcomeIgnored   = "ignored"

	WebhookOutcomeInvalidSignature = "invalid_signature"
	WebhookOutcomeMalformed        = "malformed"
)

type WebhookResult struct {
	Outcome   string
	EventID   string
	EventType string
	OrderID   string
	Reason    string
}

type PaymentWebhookUsecase struct {
	tx         repo.TransactionManager
	gateway    PaymentGateway
	clock      Clock
	ownerEmail string
}

func NewPaymentWebhookUsecase(tx repo.TransactionManager, gateway PaymentGateway, clock Clock, ownerEmail string) *PaymentWebhookUsecase {
	return &PaymentWebhookUsecase{tx: tx, gateway: gateway, clock: clock, ownerEmail: ownerEmail}
}

// Handle は署名を検証してから、checkout.session.completed だけを処理する。
// 同じイベントIDは1回しか処理しない（processed_webhook_events）。
// DB失敗は500を返してStripeに再送させる。
func (u *PaymentWebhookUsecase) Handle(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	ev, err := u.gateway.ParseWebhook(payload, signature)
	if errors.Is(err, ErrMalformedEvent) {
		//再送しても直らないので400
		slog.ErrorContext(ctx, "verified webhook event could not be decoded",
			slog.String(logkey.EventID, ev.ID), slog.String(logkey.ERROR, err.Error()))
		return WebhookResult{Outcome: WebhookOutcomeMalformed, EventID: ev.ID, EventType: ev.Type},
			NewHTTPError(http.StatusBadRequest, "malformed event")
	}
	if err != nil {
		slog.WarnContext(ctx, "webhook signature verification failed", slog.String(logkey.ERROR, err.Error()))
		return WebhookResult{Outcome: WebhookOutcomeInvalidSignature}, NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	res := WebhookResult{EventID: ev.ID, EventType: ev.Type, OrderID: ev.OrderID}

	if ev.Type != EventCheckoutSessionCompleted {
		res.Outcome = WebhookOutcomeIgnored
		return res, nil
	}

	if ev.OrderID == "" || ev.PayerEmail == "" {
		res.Outcome = WebhookOutcomeSkipped
		res.Reason = "missing order id or payer email"
		u.logSkipped(ctx, res)
		return res, nil
	}
	if _, err := uuid.Parse(ev.OrderID); err != nil {
		res.Outcome = WebhookOutcomeSkipped
		res.Reason = "malformed order id"
		u.logSkipped(ctx, res)
		return res, nil
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()
		orderID := ev.OrderID

		first, err := r.WebhookEvents().Record(ctx, model.WebhookEvent{
			EventID:     ev.ID,
			EventType:   ev.Type,
			OrderID:     &orderID,
			ProcessedAt: now,
		})
		if err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		if !first {
			res.Outcome = WebhookOutcomeDuplicate
			return nil
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			res.Outcome = WebhookOutcomeSkipped
			res.Reason = "order not found"
			return nil
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o.Status != model.OrderStatusPending {
			res.Outcome = WebhookOutcomeSkipped
			res.Reason = "order is " + string(o.Status)
			return nil
		}

		err = r.Orders().MarkPaid(ctx, orderID, repo.PaymentUpdate{
			PaymentProvider:  model.PaymentProviderStripe,
			PaymentReference: ev.PaymentIntentID,
			CustomerEmail:    ev.PayerEmail,
			PlacedAt:         now,
		})
		if errors.Is(err, repo.ErrStatusChanged) {
			res.Outcome = WebhookOutcomeSkipped
			res.Reason = "order status changed concurrently"
			return nil
		}
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		//メールとイベントはoutboxへ（送信失敗でwebhookを落とさない）
		ob := r.Outbox()
		if err := enqueueEmail(ctx, ob, model.TopicEmailOrderConfirmation, orderID, ev.PayerEmail, confirmationDedupeKey(orderID), now); err != nil {
			return err
		}
		if u.ownerEmail != "" {
			if err := enqueueEmail(ctx, ob, model.TopicEmailOwnerNewOrder, orderID, u.ownerEmail, ownerDedupeKey(orderID), now); err != nil {
				return err
			}
		}
		if err := enqueueOrderEvent(ctx, ob, model.TopicOrderPaid, model.OrderEventPayload{
			OrderID:    orderID,
			Status:     model.OrderStatusPaid,
			FromStatus: model.OrderStatusPending,
			OccurredAt: now,
		}, paidEventDedupeKey(orderID)); err != nil {
			return err
		}

		res.Outcome = WebhookOutcomePaid
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "webhook processing failed",
			slog.String(logkey.EventID, ev.ID),
			slog.String(logkey.OrderID, ev.OrderID),
			slog.String(logkey.ERROR, err.Error()))
		return WebhookResult{}, NewHTTPError(http.StatusInternalServerError, "webhook processing failed")
	}

	switch res.Outcome {
	case WebhookOutcomeSkipped:
		u.logSkipped(ctx, res)
	case WebhookOutcomeDuplicate:
		slog.InfoContext(ctx, "webhook event already processed",
			slog.String(logkey.EventID, res.EventID), slog.String(logkey.OrderID, res.OrderID))
	default:
		slog.InfoContext(ctx, "order marked paid",
			slog.String(logkey.EventID, res.EventID), slog.String(logkey.OrderID, res.OrderID))
	}
	return res, nil
}

func (u *PaymentWebhookUsecase) logSkipped(ctx context.Context, res WebhookResult) {
	slog.InfoContext(ctx, "webhook event skipped",
		slog.String(logkey.EventID, res.EventID),
		slog.String(logkey.EventType, res.EventType),
		slog.String(logkey.OrderID, res.OrderID),
		slog.String("reason", res.Reason))
}
