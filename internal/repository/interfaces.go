// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByUsername は指定ハンドルのユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateTimezone はユーザーのタイムゾーンを更新する。
	UpdateTimezone(ctx context.Context, username, timezone string) error

	// MarkSeenHelp はヘルプ表示済みフラグを立てる。
	MarkSeenHelp(ctx context.Context, username string) error
}

// ConversationRepository は会話状態の永続化インターフェース。
type ConversationRepository interface {
	// FindByID は指定IDの会話を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Conversation, error)

	// Create は会話を作成する。
	Create(ctx context.Context, conv *model.Conversation) error

	// UpdateContext は会話の対話状態と保留リマインダー参照を更新する。
	// 両者は常に同時に更新される（片方だけの更新は許さない）。
	UpdateContext(ctx context.Context, id string, mode model.ContextMode, pendingReminderID *string) error

	// UpdateLastActive は最終応答時刻を更新する。
	UpdateLastActive(ctx context.Context, id string, at time.Time) error
}

// ReminderRepository はリマインダーデータの永続化インターフェース。
type ReminderRepository interface {
	// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reminder, error)

	// Create はリマインダーを作成する。時刻未確定（RemindAtがnil）でも作成できる。
	Create(ctx context.Context, reminder *model.Reminder) error

	// Schedule は時刻未確定のリマインダーに配信時刻を設定する。
	// すでに時刻が設定済みの場合は更新せず更新件数0を返す実装とし、
	// 呼び出し元が不変条件違反として扱う。
	Schedule(ctx context.Context, id string, at time.Time) (int64, error)

	// SetAnchorDate は日付のみ確定した場合のアンカー日付を設定する。
	SetAnchorDate(ctx context.Context, id string, date time.Time) error

	// Delete は指定IDのリマインダーを削除する。
	Delete(ctx context.Context, id string) error

	// ListUpcoming は指定会話の時刻確定済みリマインダーを配信時刻の昇順で返す。
	ListUpcoming(ctx context.Context, conversationID string) ([]*model.Reminder, error)

	// ListDue は全会話を横断して配信期限（remind_at <= now）を迎えた
	// リマインダーを配信時刻の昇順で返す。システム内で唯一の会話横断クエリ。
	ListDue(ctx context.Context, now time.Time) ([]*model.Reminder, error)
}
