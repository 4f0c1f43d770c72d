package mail

import (
	"context"
	"log/slog"
	"strings"

	"danicandles/internal/usecase"

	"github.com/google/uuid"
)

// LogSender はAPIキーが無い環境用。送らずにログへ出す。
type LogSender struct{}

var _ usecase.EmailSender = LogSender{}

func (LogSender) Send(ctx context.Context, msg usecase.EmailMessage) (string, error) {
	id := "log-" + uuid.NewString()
	slog.InfoContext(ctx, "email (log only)",
		slog.String("message_id", id),
		slog.String("from", msg.From),
		slog.String("to", strings.Join(msg.To, ",")),
		slog.String("subject", msg.Subject),
	)
	slog.DebugContext(ctx, "email body", slog.String("message_id", id), slog.String("text", msg.Text))
	return id, nil
}

// New はAPIキーの有無で送信方法を切り替える
func New(apiKey string) usecase.EmailSender {
	if strings.TrimSpace(apiKey) == "" {
		return LogSender{}
	}
	return NewResendSender(apiKey)
}
