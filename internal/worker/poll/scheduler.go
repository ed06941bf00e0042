// Package poll はチャットのポーリングループを提供する。
// 未読メッセージの取り込みと期限到来リマインダーの配信を1パスとして
// 一定間隔で繰り返す。
package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/remindbot/internal/bot"
	"github.com/hitoshi/remindbot/internal/chat"
	"github.com/hitoshi/remindbot/internal/metrics"
)

// MessageProcessor はメッセージ処理と配信の実行インターフェース。
type MessageProcessor interface {
	// ProcessMessage はメッセージ1件を処理する。
	ProcessMessage(ctx context.Context, msg chat.Message, now time.Time) (bot.Result, error)

	// DeliverDue は期限到来リマインダーを配信する。
	DeliverDue(ctx context.Context, now time.Time) error
}

// Scheduler はポーリングループのスケジューラ。
// 受信メッセージを到着順に1件ずつ処理し、続けて配信スキャンを行う。
type Scheduler struct {
	transport chat.Transport
	processor MessageProcessor
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(
	transport chat.Transport,
	processor MessageProcessor,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		transport: transport,
		processor: processor,
		metrics:   collector,
		logger:    logger,
	}
}

// Start は指定間隔のティッカーでポーリングループを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ポーリングループを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("ポーリングパスの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ポーリングループを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("ポーリングパスの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はポーリングパスを1回実行する。
//
// 未読メッセージを到着順に処理したのち、期限到来リマインダーを配信する。
// メッセージ1件の失敗はそのメッセージの処理のみを打ち切り、
// 残りのメッセージと配信スキャンは継続する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordPassLatency(time.Since(start))
	}()

	msgs, err := s.transport.FetchUnread(ctx)
	if err != nil {
		return err
	}

	if len(msgs) > 0 {
		s.logger.Info("未読メッセージを処理します",
			slog.Int("message_count", len(msgs)),
		)
	}

	for _, msg := range msgs {
		result, err := s.processor.ProcessMessage(ctx, msg, time.Now())
		if err != nil {
			s.metrics.RecordMessageFailure()
			s.logger.Error("メッセージの処理に失敗しました",
				slog.String("conversation_id", msg.ConversationID),
				slog.String("sender", msg.Sender),
				slog.String("error", err.Error()),
			)
			continue
		}
		if result.Ignored {
			s.metrics.RecordMessageIgnored()
			continue
		}
		s.metrics.RecordMessageProcessed(result.Intent.String())
	}

	if err := s.processor.DeliverDue(ctx, time.Now()); err != nil {
		return err
	}

	return nil
}
