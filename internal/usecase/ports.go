package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// 認証済みの呼び出し元（認証プロバイダのsub/email）
type Principal struct {
	UserID string
	Email  string
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// 決済プロバイダ（Stripe）への出口
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (CheckoutSession, error)
	//署名を検証してイベントを取り出す。検証失敗はerror
	ParseWebhook(payload []byte, signature string) (PaymentEvent, error)
}

// 署名は正しいが中身を読めないイベント
var ErrMalformedEvent = errors.New("malformed payment event")

type CheckoutLine struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

type CheckoutSessionParams struct {
	OrderID       string
	CurrencyCode  string
	CustomerEmail string
	Lines         []CheckoutLine
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

// webhookで受け取ったイベントのうち使う部分だけ
type PaymentEvent struct {
	ID              string
	Type            string
	OrderID         string
	PayerEmail      string
	PaymentIntentID string
}

// メール送信の出口（Resend or ログ）
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// ドメインイベントの出口（Kafka）
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value []byte) error
}
