package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	repo "danicandles/internal/repository"

	"github.com/google/uuid"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	validator RequestValidator
	ids       IDGenerator
	clock     Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, validator RequestValidator, ids IDGenerator, clock Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, validator: validator, ids: ids, clock: clock}
}

type UpdateOrderStatusInput struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Status  string `json:"status" validate:"required"`
}

type UpdateOrderStatusOutput struct {
	Message string            `json:"message"`
	Status  model.OrderStatus `json:"status"`
}

type ResendEmailOutput struct {
	Queued bool `json:"queued"`
}

type AdminOrderDetailOutput struct {
	OrderOutput
	AllowedStatuses []model.OrderStatus `json:"allowedStatuses"`
	History         []model.AuditLog    `json:"history"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 詳細＋管理画面に出す遷移先＋操作履歴
func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID string) (AdminOrderDetailOutput, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return AdminOrderDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	var out AdminOrderDetailOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		history, err := r.AuditLogs().ListForResource(ctx, model.AuditResourceOrder, orderID, 100)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if history == nil {
			history = []model.AuditLog{}
		}

		out = AdminOrderDetailOutput{
			OrderOutput:     toOrderOutput(o, items),
			AllowedStatuses: model.AdminTransitions(o.Status),
			History:         history,
		}
		return nil
	})

	if err != nil {
		return AdminOrderDetailOutput{}, err
	}
	return out, nil
}

// UpdateStatus は遷移表にある遷移だけを許可し、現在のstatusを条件に更新する。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor Principal, in UpdateOrderStatusInput) (UpdateOrderStatusOutput, error) {
	if actor.UserID == "" {
		return UpdateOrderStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validator.ValidateStatusUpdate(in); err != nil {
		return UpdateOrderStatusOutput{}, err
	}
	to, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return UpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}

		// すでに同じなら何もしない（200）
		if o.Status == to {
			return nil
		}
		if !model.CanAdminTransition(o.Status, to) {
			return &HTTPError{
				Status:  http.StatusConflict,
				Message: fmt.Sprintf("%s: %s -> %s", model.ErrIllegalTransition.Error(), o.Status, to),
			}
		}

		err = r.Orders().UpdateStatus(ctx, o.ID, o.Status, to)
		if errors.Is(err, repo.ErrStatusChanged) {
			return NewHTTPError(http.StatusConflict, "order status changed, reload and retry")
		}
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		now := u.clock.Now()

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorEmail:   actor.Email,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   statusJSON(o.Status),
			AfterJSON:    statusJSON(to),
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("audit log: %w", err)
		}

		if to == model.OrderStatusShipped {
			if o.CustomerEmail == "" {
				slog.WarnContext(ctx, "shipped order has no customer email", slog.String(logkey.OrderID, o.ID))
			} else if err := enqueueEmail(ctx, r.Outbox(), model.TopicEmailOrderShipped, o.ID, o.CustomerEmail, shippedDedupeKey(o.ID), now); err != nil {
				return err
			}
		}

		return enqueueOrderEvent(ctx, r.Outbox(), model.TopicOrderStatusChanged, model.OrderEventPayload{
			OrderID:    o.ID,
			Status:     to,
			FromStatus: o.Status,
			OccurredAt: now,
		}, statusEventDedupeKey(o.ID, to))
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return UpdateOrderStatusOutput{}, err
		}
		slog.ErrorContext(ctx, "order status update failed",
			slog.String(logkey.OrderID, in.OrderID), slog.String(logkey.ERROR, err.Error()))
		return UpdateOrderStatusOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return UpdateOrderStatusOutput{Message: "updated", Status: to}, nil
}

// 発送済みの注文だけ、発送メールを再送キューに積む
func (u *AdminOrderUsecase) ResendShippedEmail(ctx context.Context, actor Principal, orderID string) (ResendEmailOutput, error) {
	if actor.UserID == "" {
		return ResendEmailOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return ResendEmailOutput{}, NewValidationError(FieldError{Field: "orderId", Message: "must be a UUID"})
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o.Status != model.OrderStatusShipped {
			return NewHTTPError(http.StatusConflict, "order is not shipped")
		}
		if o.CustomerEmail == "" {
			return NewHTTPError(http.StatusConflict, "order has no customer email")
		}

		now := u.clock.Now()
		dedupe := shippedDedupeKey(o.ID) + ":resend:" + u.ids.NewID()
		if err := enqueueEmail(ctx, r.Outbox(), model.TopicEmailOrderShipped, o.ID, o.CustomerEmail, dedupe, now); err != nil {
			return err
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			ActorEmail:   actor.Email,
			Action:       model.AuditActionResendOrderEmail,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   statusJSON(o.Status),
			AfterJSON:    statusJSON(o.Status),
			CreatedAt:    now,
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return ResendEmailOutput{}, err
		}
		slog.ErrorContext(ctx, "resend shipped email failed",
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		return ResendEmailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ResendEmailOutput{Queued: true}, nil
}

func statusJSON(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]model.OrderStatus{"status": s})
	return string(b)
}
