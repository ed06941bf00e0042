package model

import "time"

// Reminder はリマインダーを表す。
// RemindAtがnilの間は「時刻未確定」であり、配信対象にならない。
// AnchorDateは日付のみ確定している場合のアンカー日付で、
// 後続の時刻入力の基準となる。ゾーンに依存しない暦日として
// UTC 0時でエンコードする。
type Reminder struct {
	ID             string
	ConversationID string
	Body           string
	RemindAt       *time.Time // UTCで保存・比較する
	AnchorDate     *time.Time
	CreatedAt      time.Time
}

// IsScheduled は配信時刻が確定しているかを返す。
func (r *Reminder) IsScheduled() bool {
	return r.RemindAt != nil
}

// IsDue は指定時刻の時点で配信期限を迎えているかを返す。
// 時刻未確定のリマインダーは決して配信対象にならない。
func (r *Reminder) IsDue(now time.Time) bool {
	return r.RemindAt != nil && !r.RemindAt.After(now)
}
