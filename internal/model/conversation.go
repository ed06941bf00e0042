package model

import "time"

// ContextMode は会話の対話状態を表す。
type ContextMode string

const (
	// ContextNone は保留中の問い合わせがない状態。
	ContextNone ContextMode = "NONE"
	// ContextAwaitingTime はリマインダーの時刻入力を待っている状態。
	ContextAwaitingTime ContextMode = "AWAITING_TIME"
)

// Conversation はチャンネル単位の会話状態を表す。
// PendingReminderIDはContextModeがContextAwaitingTimeの間のみ
// 非nilとなる。両者は常に同時に設定・解除される。
type Conversation struct {
	ID                string
	ContextMode       ContextMode
	PendingReminderID *string
	IsPrivate         bool
	LastActiveAt      *time.Time // 一度も応答していない会話ではnil
	CreatedAt         time.Time
}

// IsAwaitingTime は時刻入力待ち状態かどうかを返す。
func (c *Conversation) IsAwaitingTime() bool {
	return c.ContextMode == ContextAwaitingTime
}

// ActiveWithin は指定時刻から遡ってwindow以内に応答があったかを返す。
// LastActiveAtがnilの場合は常にfalse。
func (c *Conversation) ActiveWithin(now time.Time, window time.Duration) bool {
	if c.LastActiveAt == nil {
		return false
	}
	return now.Sub(*c.LastActiveAt) < window
}
