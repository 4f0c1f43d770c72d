package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"danicandles/internal/domain/model"
	"danicandles/internal/logkey"
	"danicandles/internal/metrics"
	repo "danicandles/internal/repository"
	"danicandles/internal/usecase"
)

// メールを1件送る（NotificationUsecase）
type Deliverer interface {
	Deliver(ctx context.Context, topic string, payload []byte) (string, error)
}

type Options struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// 取り出した行を他のワーカーから隠しておく時間
	Lease       time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Lease <= 0 {
		o.Lease = 2 * time.Minute
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 30 * time.Second
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 30 * time.Minute
	}
	return o
}

// 配信結果（metricsのresultラベル）
const (
	resultSent      = "sent"
	resultRetry     = "retry"
	resultFailed    = "failed"
	resultDiscarded = "discarded"
)

type OutboxWorker struct {
	outbox    repo.OutboxRepository
	deliverer Deliverer
	publisher usecase.EventPublisher
	clock     usecase.Clock
	metrics   *metrics.Metrics
	opts      Options
}

// publisher が nil のとき、メール以外のtopicは送らずにsent扱いにする
func NewOutboxWorker(outbox repo.OutboxRepository, deliverer Deliverer, publisher usecase.EventPublisher, clock usecase.Clock, m *metrics.Metrics, opts Options) *OutboxWorker {
	return &OutboxWorker{
		outbox:    outbox,
		deliverer: deliverer,
		publisher: publisher,
		clock:     clock,
		metrics:   m,
		opts:      opts.withDefaults(),
	}
}

// Run はctxがキャンセルされるまでポーリングする
func (w *OutboxWorker) Run(ctx context.Context) {
	slog.InfoContext(ctx, "outbox worker started",
		slog.Duration("poll_interval", w.opts.PollInterval),
		slog.Int("batch_size", w.opts.BatchSize),
	)

	t := time.NewTicker(w.opts.PollInterval)
	defer t.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "outbox poll failed", slog.String(logkey.ERROR, err.Error()))
		}
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "outbox worker stopped")
			return
		case <-t.C:
		}
	}
}

// RunOnce は期限の来た行を1バッチ処理し、処理した件数を返す
func (w *OutboxWorker) RunOnce(ctx context.Context) (int, error) {
	msgs, err := w.outbox.ClaimDue(ctx, w.clock.Now(), w.opts.BatchSize, w.opts.Lease)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		if ctx.Err() != nil {
			break
		}
		w.process(ctx, msg)
	}
	return len(msgs), nil
}

func (w *OutboxWorker) process(ctx context.Context, msg model.OutboxMessage) {
	attrs := []any{
		slog.Int64(logkey.OutboxID, msg.ID),
		slog.String(logkey.Topic, msg.Topic),
		slog.Int(logkey.Attempts, msg.Attempts),
	}

	result, err := w.dispatch(ctx, msg)
	if err == nil {
		if markErr := w.outbox.MarkSent(ctx, msg.ID, w.clock.Now()); markErr != nil {
			slog.ErrorContext(ctx, "outbox mark sent failed", append(attrs, slog.String(logkey.ERROR, markErr.Error()))...)
		}
		w.metrics.ObserveOutbox(msg.Topic, result)
		slog.InfoContext(ctx, "outbox delivered", append(attrs, slog.String("result", result))...)
		return
	}

	lastErr := err.Error()
	if errors.Is(err, usecase.ErrUndeliverable) || msg.Attempts >= w.opts.MaxAttempts {
		if markErr := w.outbox.MarkFailed(ctx, msg.ID, lastErr); markErr != nil {
			slog.ErrorContext(ctx, "outbox mark failed failed", append(attrs, slog.String(logkey.ERROR, markErr.Error()))...)
		}
		w.metrics.ObserveOutbox(msg.Topic, resultFailed)
		slog.ErrorContext(ctx, "outbox delivery gave up", append(attrs, slog.String(logkey.ERROR, lastErr))...)
		return
	}

	next := w.clock.Now().Add(Backoff(msg.Attempts, w.opts.BackoffBase, w.opts.BackoffCap))
	if markErr := w.outbox.MarkRetry(ctx, msg.ID, lastErr, next); markErr != nil {
		slog.ErrorContext(ctx, "outbox mark retry failed", append(attrs, slog.String(logkey.ERROR, markErr.Error()))...)
	}
	w.metrics.ObserveOutbox(msg.Topic, resultRetry)
	slog.WarnContext(ctx, "outbox delivery failed, will retry",
		append(attrs, slog.String(logkey.ERROR, lastErr), slog.Time("next_attempt_at", next))...)
}

func (w *OutboxWorker) dispatch(ctx context.Context, msg model.OutboxMessage) (string, error) {
	if strings.HasPrefix(msg.Topic, model.EmailTopicPrefix) {
		id, err := w.deliverer.Deliver(ctx, msg.Topic, msg.Payload)
		if err != nil {
			return "", err
		}
		slog.DebugContext(ctx, "email accepted", slog.Int64(logkey.OutboxID, msg.ID), slog.String("message_id", id))
		return resultSent, nil
	}

	if w.publisher == nil {
		return resultDiscarded, nil
	}
	if err := w.publisher.Publish(ctx, msg.Topic, []byte(msg.Key), msg.Payload); err != nil {
		return "", err
	}
	return resultSent, nil
}

// Backoff は attempts 回目の失敗後の待ち時間。base * 2^(attempts-1) を cap で頭打ち。
func Backoff(attempts int, base, limit time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}
