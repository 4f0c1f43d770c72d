package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"
	"danicandles/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	tx     *TxManagerMock
	orders *OrderRepoMock
	outbox *OutboxRepoMock
	events *WebhookEventRepoMock
	gw     *PaymentGatewayMock
	uc     *usecase.PaymentWebhookUsecase
}

func newWebhookFixture(ownerEmail string) webhookFixture {
	f := webhookFixture{
		tx:     new(TxManagerMock),
		orders: new(OrderRepoMock),
		outbox: new(OutboxRepoMock),
		events: new(WebhookEventRepoMock),
		gw:     new(PaymentGatewayMock),
	}
	f.tx.Repos = &TxReposMock{orders: f.orders, outbox: f.outbox, webhookEvents: f.events}
	f.uc = usecase.NewPaymentWebhookUsecase(f.tx, f.gw, fixedClock{t: testNow}, ownerEmail)
	return f
}

func completedEvent() usecase.PaymentEvent {
	return usecase.PaymentEvent{
		ID:              "evt_1",
		Type:            usecase.EventCheckoutSessionCompleted,
		OrderID:         testOrderID,
		PayerEmail:      "payer@example.com",
		PaymentIntentID: "pi_123",
	}
}

var payload = []byte(`{"id":"evt_1"}`)

func TestPaymentWebhook_InvalidSignature(t *testing.T) {
	f := newWebhookFixture("")
	f.gw.On("ParseWebhook", payload, "bad").Return(usecase.PaymentEvent{}, errors.New("signature mismatch")).Once()

	_, err := f.uc.Handle(context.Background(), payload, "bad")

	assertStatus(t, err, http.StatusBadRequest)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPaymentWebhook_MalformedEventIsNotASignatureFailure(t *testing.T) {
	f := newWebhookFixture("")
	decodeErr := fmt.Errorf("%w: decode checkout session: bad metadata", usecase.ErrMalformedEvent)
	f.gw.On("ParseWebhook", payload, "sig").
		Return(usecase.PaymentEvent{ID: "evt_1", Type: usecase.EventCheckoutSessionCompleted}, decodeErr).Once()

	res, err := f.uc.Handle(context.Background(), payload, "sig")

	assertStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "malformed event")
	assert.Equal(t, usecase.WebhookOutcomeMalformed, res.Outcome)
	assert.Equal(t, "evt_1", res.EventID)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPaymentWebhook_MarksPaidAndQueuesEmails(t *testing.T) {
	f := newWebhookFixture("owner@danicandles.com")
	ev := completedEvent()

	f.gw.On("ParseWebhook", payload, "sig").Return(ev, nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Once()
	f.events.On("Record", mock.Anything, mock.MatchedBy(func(w model.WebhookEvent) bool {
		return w.EventID == "evt_1" && *w.OrderID == testOrderID
	})).Return(true, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(pendingOrder(), nil).Once()
	f.orders.On("MarkPaid", mock.Anything, testOrderID, repo.PaymentUpdate{
		PaymentProvider:  "stripe",
		PaymentReference: "pi_123",
		CustomerEmail:    "payer@example.com",
		PlacedAt:         testNow,
	}).Return(nil).Once()
	f.outbox.On("Enqueue", mock.Anything, mock.Anything).Return(true, nil)

	res, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomePaid, res.Outcome)

	assert.Equal(t, []string{
		model.TopicEmailOrderConfirmation,
		model.TopicEmailOwnerNewOrder,
		model.TopicOrderPaid,
	}, f.outbox.enqueuedTopics())

	msg, ok := f.outbox.enqueued(model.TopicEmailOrderConfirmation)
	require.True(t, ok)
	assert.Equal(t, "confirmation:"+testOrderID, msg.DedupeKey)
	assert.JSONEq(t, `{"orderId":"`+testOrderID+`","recipient":"payer@example.com"}`, string(msg.Payload))

	f.orders.AssertExpectations(t)
}

func TestPaymentWebhook_NoOwnerEmailConfigured(t *testing.T) {
	f := newWebhookFixture("")

	f.gw.On("ParseWebhook", payload, "sig").Return(completedEvent(), nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Once()
	f.events.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(pendingOrder(), nil).Once()
	f.orders.On("MarkPaid", mock.Anything, testOrderID, mock.Anything).Return(nil).Once()
	f.outbox.On("Enqueue", mock.Anything, mock.Anything).Return(true, nil)

	_, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, []string{model.TopicEmailOrderConfirmation, model.TopicOrderPaid}, f.outbox.enqueuedTopics())
}

// 同じイベントの2回目は何も書かない・何も積まない
func TestPaymentWebhook_DuplicateDeliveryIsNoop(t *testing.T) {
	f := newWebhookFixture("owner@danicandles.com")

	f.gw.On("ParseWebhook", payload, "sig").Return(completedEvent(), nil).Twice()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Twice()
	f.events.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()
	f.events.On("Record", mock.Anything, mock.Anything).Return(false, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(pendingOrder(), nil).Once()
	f.orders.On("MarkPaid", mock.Anything, testOrderID, mock.Anything).Return(nil).Once()
	f.outbox.On("Enqueue", mock.Anything, mock.Anything).Return(true, nil)

	first, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomePaid, first.Outcome)
	queued := len(f.outbox.enqueuedTopics())

	second, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomeDuplicate, second.Outcome)

	assert.Len(t, f.outbox.enqueuedTopics(), queued)
	f.orders.AssertNumberOfCalls(t, "MarkPaid", 1)
}

func TestPaymentWebhook_MissingMetadataIsSkipped(t *testing.T) {
	tests := []struct {
		name string
		ev   func() usecase.PaymentEvent
	}{
		{"no order id", func() usecase.PaymentEvent { ev := completedEvent(); ev.OrderID = ""; return ev }},
		{"no payer email", func() usecase.PaymentEvent { ev := completedEvent(); ev.PayerEmail = ""; return ev }},
		{"malformed order id", func() usecase.PaymentEvent { ev := completedEvent(); ev.OrderID = "123"; return ev }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture("")
			f.gw.On("ParseWebhook", payload, "sig").Return(tt.ev(), nil).Once()

			res, err := f.uc.Handle(context.Background(), payload, "sig")
			require.NoError(t, err)
			assert.Equal(t, usecase.WebhookOutcomeSkipped, res.Outcome)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}

func TestPaymentWebhook_OtherEventTypesIgnored(t *testing.T) {
	f := newWebhookFixture("")
	f.gw.On("ParseWebhook", payload, "sig").Return(usecase.PaymentEvent{ID: "evt_2", Type: "invoice.paid"}, nil).Once()

	res, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomeIgnored, res.Outcome)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPaymentWebhook_AlreadyPaidOrderSkipped(t *testing.T) {
	f := newWebhookFixture("")
	paid := pendingOrder()
	paid.Status = model.OrderStatusPaid

	f.gw.On("ParseWebhook", payload, "sig").Return(completedEvent(), nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Once()
	f.events.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(paid, nil).Once()

	res, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomeSkipped, res.Outcome)
	f.orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.outbox.enqueuedTopics())
}

func TestPaymentWebhook_ConcurrentPaymentSkipped(t *testing.T) {
	f := newWebhookFixture("")

	f.gw.On("ParseWebhook", payload, "sig").Return(completedEvent(), nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Once()
	f.events.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(pendingOrder(), nil).Once()
	f.orders.On("MarkPaid", mock.Anything, testOrderID, mock.Anything).Return(repo.ErrStatusChanged).Once()

	res, err := f.uc.Handle(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.Equal(t, usecase.WebhookOutcomeSkipped, res.Outcome)
	assert.Empty(t, f.outbox.enqueuedTopics())
}

func TestPaymentWebhook_StoreFailureReturns500(t *testing.T) {
	f := newWebhookFixture("")

	f.gw.On("ParseWebhook", payload, "sig").Return(completedEvent(), nil).Once()
	f.tx.On("WithinTx", mock.Anything).Return(nil).Once()
	f.events.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()
	f.orders.On("FindByID", mock.Anything, testOrderID).Return(model.Order{}, errors.New("conn reset")).Once()

	_, err := f.uc.Handle(context.Background(), payload, "sig")
	assertStatus(t, err, http.StatusInternalServerError)
	assert.NotContains(t, err.Error(), "conn reset")
}
