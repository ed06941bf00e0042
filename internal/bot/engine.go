// Package bot はメッセージのディスパッチとリマインダー対話のコアロジックを提供する。
// インテント分類の結果に応じて各サービスを呼び出し、応答を送信する。
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/remindbot/internal/chat"
	"github.com/hitoshi/remindbot/internal/conversation"
	"github.com/hitoshi/remindbot/internal/intent"
	"github.com/hitoshi/remindbot/internal/metrics"
	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/reminder"
	"github.com/hitoshi/remindbot/internal/user"
	"github.com/hitoshi/remindbot/internal/when"
)

// recencyWindow は「対話中」とみなす最終応答からの経過時間の上限。
// この窓内の理解不能メッセージにはUNKNOWN応答を返す。
const recencyWindow = 30 * time.Minute

// Result はメッセージ1件の処理結果を表す。
type Result struct {
	// Intent は分類されたインテント。Ignoredがtrueの場合は未分類。
	Intent intent.Type

	// Replied は応答を送信した（送信を試みた）かどうか。
	Replied bool

	// Ignored はボット宛でない等の理由で処理をスキップしたかどうか。
	Ignored bool
}

// Engine はメッセージ処理のディスパッチャ。
// ユーザー・会話・リマインダーの各サービスとトランスポートを束ねる。
type Engine struct {
	users     *user.Service
	convs     *conversation.Service
	reminders *reminder.Service
	transport chat.Transport
	metrics   metrics.MetricsCollector
	logger    *slog.Logger

	botUsername     string
	owner           string
	defaultTimezone string
}

// NewEngine はEngineの新しいインスタンスを生成する。
func NewEngine(
	users *user.Service,
	convs *conversation.Service,
	reminders *reminder.Service,
	transport chat.Transport,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	botUsername string,
	owner string,
	defaultTimezone string,
) *Engine {
	return &Engine{
		users:           users,
		convs:           convs,
		reminders:       reminders,
		transport:       transport,
		metrics:         collector,
		logger:          logger,
		botUsername:     botUsername,
		owner:           owner,
		defaultTimezone: defaultTimezone,
	}
}

// ProcessMessage はメッセージ1件を処理する。
//
// 分類・状態遷移・応答送信までを行い、応答した場合は会話の最終応答時刻を
// 更新する。不変条件違反（対話状態と保留リマインダーの不整合など）を
// 検出した場合は謝罪メッセージを送信して対話状態をリセットし、
// エラーを呼び出し元へ返す。
func (e *Engine) ProcessMessage(ctx context.Context, msg chat.Message, now time.Time) (Result, error) {
	conv, err := e.convs.LookupOrCreate(ctx, msg.ConversationID, msg.IsPrivate, now)
	if err != nil {
		return Result{}, err
	}

	result, err := e.processInner(ctx, msg, conv, now)
	if err != nil && model.IsInvariantViolation(err) {
		e.logger.Error("不変条件違反を検出しました。対話状態をリセットします",
			slog.String("conversation_id", conv.ID),
			slog.String("error", err.Error()),
		)
		e.send(ctx, conv.ID, crashReply(e.owner))
		if clearErr := e.convs.ClearContext(ctx, conv); clearErr != nil {
			e.logger.Error("対話状態のリセットに失敗しました",
				slog.String("conversation_id", conv.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return result, err
	}
	if err != nil {
		return result, err
	}

	if result.Replied {
		if err := e.convs.Touch(ctx, conv, now); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) processInner(ctx context.Context, msg chat.Message, conv *model.Conversation, now time.Time) (Result, error) {
	// 非プライベートチャンネルでは、対話中でない限りボット宛の
	// メンションを含むメッセージのみ処理する。
	if !msg.IsPrivate && !mentionsBot(msg.Text, e.botUsername) && !conv.IsAwaitingTime() {
		e.logger.Debug("ボット宛でないメッセージを無視します",
			slog.String("conversation_id", conv.ID),
		)
		return Result{Ignored: true}, nil
	}

	u, err := e.users.LookupOrCreate(ctx, msg.Sender, now)
	if err != nil {
		return Result{}, err
	}

	loc, err := e.users.Location(u, e.defaultTimezone)
	if err != nil {
		return Result{}, err
	}

	// 時刻入力待ち状態なら保留リマインダーのアンカー日付を分類に渡す
	var anchor *time.Time
	var pendingID string
	if conv.IsAwaitingTime() {
		if conv.PendingReminderID == nil {
			return Result{}, model.NewInvariantViolationError(
				"conversation is awaiting time but has no pending reminder")
		}
		pendingID = *conv.PendingReminderID
		pending, err := e.reminders.Find(ctx, pendingID)
		if err != nil {
			return Result{}, err
		}
		anchor = pending.AnchorDate
	}

	in := intent.Classify(msg.Text, conv.ContextMode, loc, now, anchor)
	e.logger.Info("メッセージを分類しました",
		slog.String("conversation_id", conv.ID),
		slog.String("sender", msg.Sender),
		slog.String("intent", in.Type.String()),
	)

	// タイムゾーン未設定ユーザーの初回リマインダーにはデフォルトを仮定する
	if in.Type == intent.TypeReminder && u.Timezone == "" {
		e.send(ctx, conv.ID, assumeTimezoneReply(e.defaultTimezone))
		if err := e.users.SetTimezone(ctx, u, e.defaultTimezone); err != nil {
			return Result{}, err
		}
	}

	result := Result{Intent: in.Type}

	switch in.Type {
	case intent.TypeReminder:
		var remindAt, anchorDate *time.Time
		switch in.Resolution.Kind {
		case when.KindFull:
			at := in.Resolution.At
			remindAt = &at
		case when.KindDateOnly:
			d := in.Resolution.Date
			anchorDate = &d
		}
		rem, err := e.reminders.Create(ctx, conv.ID, in.Body, remindAt, anchorDate, now)
		if err != nil {
			return result, err
		}
		e.metrics.RecordReminderCreated()
		if rem.IsScheduled() {
			result.Replied = e.send(ctx, conv.ID, confirmationReply(rem.Body, *rem.RemindAt, loc, now))
			return result, nil
		}
		if err := e.convs.BeginAwaitingTime(ctx, conv, rem.ID); err != nil {
			return result, err
		}
		result.Replied = e.send(ctx, conv.ID, ReplyWhen)
		return result, nil

	case intent.TypeSupplyTime:
		if pendingID == "" {
			return result, model.NewInvariantViolationError(
				"time supplied without a pending reminder")
		}
		if in.Resolution.Kind == when.KindDateOnly {
			// 日付のみ判明。アンカーとして保存し、引き続き時刻を待つ
			if err := e.reminders.SetAnchorDate(ctx, pendingID, in.Resolution.Date); err != nil {
				return result, err
			}
			result.Replied = e.send(ctx, conv.ID, ReplyAckWhen)
			return result, nil
		}
		if err := e.reminders.Complete(ctx, pendingID, in.Resolution.At); err != nil {
			return result, err
		}
		rem, err := e.reminders.Find(ctx, pendingID)
		if err != nil {
			return result, err
		}
		if err := e.convs.ClearContext(ctx, conv); err != nil {
			return result, err
		}
		result.Replied = e.send(ctx, conv.ID, confirmationReply(rem.Body, *rem.RemindAt, loc, now))
		return result, nil

	case intent.TypeStop:
		if pendingID != "" {
			if err := e.reminders.Abandon(ctx, pendingID); err != nil {
				return result, err
			}
		}
		if err := e.convs.ClearContext(ctx, conv); err != nil {
			return result, err
		}
		result.Replied = e.send(ctx, conv.ID, ReplyOK)
		return result, nil

	case intent.TypeHelp:
		if err := e.users.MarkSeenHelp(ctx, u); err != nil {
			return result, err
		}
		result.Replied = e.send(ctx, conv.ID, ReplyHelp)
		return result, nil

	case intent.TypeTimezone:
		if err := e.users.SetTimezone(ctx, u, in.Timezone); err != nil {
			return result, err
		}
		if conv.IsAwaitingTime() {
			result.Replied = e.send(ctx, conv.ID, ReplyAckWhen)
		} else {
			result.Replied = e.send(ctx, conv.ID, ReplyAck)
		}
		return result, nil

	case intent.TypeUnknownTimezone:
		result.Replied = e.send(ctx, conv.ID, ReplyHelpTZ)
		return result, nil

	case intent.TypeList:
		rems, err := e.reminders.ListUpcoming(ctx, conv.ID)
		if err != nil {
			return result, err
		}
		result.Replied = e.send(ctx, conv.ID, listReply(rems, loc))
		return result, nil

	case intent.TypeSource:
		result.Replied = e.send(ctx, conv.ID, ReplySource)
		return result, nil

	default: // intent.TypeUnknown
		if conv.IsAwaitingTime() {
			result.Replied = e.send(ctx, conv.ID, ReplyHelpWhen)
			return result, nil
		}
		if conv.ActiveWithin(now, recencyWindow) {
			// 対話の途中とみなす
			result.Replied = e.send(ctx, conv.ID, ReplyUnknown)
			return result, nil
		}
		if !msg.IsPrivate {
			// ボット宛ではなかったと判断する
			result.Ignored = true
			return result, nil
		}
		if !u.HasSeenHelp {
			if err := e.users.MarkSeenHelp(ctx, u); err != nil {
				return result, err
			}
			result.Replied = e.send(ctx, conv.ID, ReplyPromptHelp)
			return result, nil
		}
		result.Ignored = true
		return result, nil
	}
}

// DeliverDue は期限到来リマインダーを配信する。
// 配信に成功したリマインダーは削除する。送信失敗時は削除せず、
// 次回スキャンで再試行する。
func (e *Engine) DeliverDue(ctx context.Context, now time.Time) error {
	due, err := e.reminders.DueScan(ctx, now)
	if err != nil {
		return err
	}

	for _, rem := range due {
		if err := e.transport.Send(ctx, rem.ConversationID, deliveryText(rem.Body)); err != nil {
			e.metrics.RecordSendFailure()
			e.logger.Error("リマインダーの配信に失敗しました",
				slog.String("reminder_id", rem.ID),
				slog.String("conversation_id", rem.ConversationID),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.logger.Info("リマインダーを配信しました",
			slog.String("reminder_id", rem.ID),
			slog.String("conversation_id", rem.ConversationID),
			slog.Time("remind_at", *rem.RemindAt),
		)
		e.metrics.RecordReminderDelivered()
		if err := e.reminders.Delete(ctx, rem.ID); err != nil {
			return err
		}
	}
	return nil
}

// mentionsBot はテキストがボットのユーザー名に言及しているかを返す。
func mentionsBot(text, username string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(username))
}

// send は応答を送信し、成功したかどうかを返す。
// 送信失敗は致命的ではないためログに記録して継続する。
func (e *Engine) send(ctx context.Context, conversationID, text string) bool {
	if err := e.transport.Send(ctx, conversationID, text); err != nil {
		e.metrics.RecordSendFailure()
		e.logger.Error("応答の送信に失敗しました",
			slog.String("conversation_id", conversationID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
