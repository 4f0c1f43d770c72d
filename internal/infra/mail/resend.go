package mail

import (
	"context"
	"fmt"

	"danicandles/internal/usecase"

	"github.com/resend/resend-go/v2"
)

// ResendSender はResendのメールAPIで送る
type ResendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey)}
}

var _ usecase.EmailSender = (*ResendSender)(nil)

func (s *ResendSender) Send(ctx context.Context, msg usecase.EmailMessage) (string, error) {
	res, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	return res.Id, nil
}
