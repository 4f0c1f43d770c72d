package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"danicandles/internal/usecase"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// metadataOrderID はセッションとPaymentIntentの両方に載せる
const metadataOrderID = "orderId"

var ErrMissingSignature = errors.New("missing stripe signature")

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p usecase.CheckoutSessionParams) (usecase.CheckoutSession, error) {
	params := checkoutParams(p)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return usecase.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return usecase.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func checkoutParams(p usecase.CheckoutSessionParams) *stripe.CheckoutSessionParams {
	currency := strings.ToLower(p.CurrencyCode)

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(l.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	meta := map[string]string{metadataOrderID: p.OrderID}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lines,
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.OrderID),
		Metadata:          meta,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metadataOrderID: p.OrderID},
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	return params
}

// ParseWebhook は署名を検証し、checkout.session.completed なら注文IDと支払者を取り出す。
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	if signature == "" {
		return usecase.PaymentEvent{}, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("verify stripe event: %w", err)
	}

	out := usecase.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != usecase.EventCheckoutSessionCompleted || event.Data == nil {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return usecase.PaymentEvent{ID: event.ID, Type: string(event.Type)}, fmt.Errorf("%w: decode checkout session: %v", usecase.ErrMalformedEvent, err)
	}

	out.OrderID = s.Metadata[metadataOrderID]
	if out.OrderID == "" {
		out.OrderID = s.ClientReferenceID
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		out.PayerEmail = s.CustomerDetails.Email
	} else {
		out.PayerEmail = s.CustomerEmail
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}
