// Package model はドメインモデルを定義する。
package model

import "time"

// User はボットと会話するユーザーを表す。
// Usernameがチャット上のハンドルであり一意キーとなる。
// Timezoneが空文字列の場合はタイムゾーン未設定を意味する。
type User struct {
	Username    string
	Timezone    string // IANAゾーン名（例: "US/Eastern"）。未設定は空文字列。
	HasSeenHelp bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
