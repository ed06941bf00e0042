package model

import (
	"errors"
	"fmt"
)

// BotError は統一エラーフォーマットを表す。
// 運用ログに出す原因カテゴリとエラーコードを含む。
type BotError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, invariant, transport, storage
}

// Error はerrorインターフェースを実装する。
func (e *BotError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidTimezone      = "INVALID_TIMEZONE"
	ErrCodeInvariantViolation   = "INVARIANT_VIOLATION"
	ErrCodeReminderNotFound     = "REMINDER_NOT_FOUND"
	ErrCodeConversationNotFound = "CONVERSATION_NOT_FOUND"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeSendFailed           = "SEND_FAILED"
)

// NewInvalidTimezoneError はタイムゾーン名が解決できない場合のエラーを生成する。
func NewInvalidTimezoneError(name string) *BotError {
	return &BotError{
		Code:     ErrCodeInvalidTimezone,
		Message:  fmt.Sprintf("タイムゾーン名を解決できません: %s", name),
		Category: "validation",
	}
}

// NewInvariantViolationError は状態機械の不変条件違反を生成する。
// このエラーはロジック上の欠陥を示すため、該当メッセージの処理のみを
// 中断し、外側のループは継続する。
func NewInvariantViolationError(detail string) *BotError {
	return &BotError{
		Code:     ErrCodeInvariantViolation,
		Message:  fmt.Sprintf("不変条件違反: %s", detail),
		Category: "invariant",
	}
}

// NewReminderNotFoundError はリマインダーが見つからない場合のエラーを生成する。
func NewReminderNotFoundError(id string) *BotError {
	return &BotError{
		Code:     ErrCodeReminderNotFound,
		Message:  fmt.Sprintf("指定されたリマインダーが見つかりません: %s", id),
		Category: "storage",
	}
}

// NewConversationNotFoundError は会話が見つからない場合のエラーを生成する。
func NewConversationNotFoundError(id string) *BotError {
	return &BotError{
		Code:     ErrCodeConversationNotFound,
		Message:  fmt.Sprintf("指定された会話が見つかりません: %s", id),
		Category: "storage",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(username string) *BotError {
	return &BotError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", username),
		Category: "storage",
	}
}

// NewSendFailedError はメッセージ送信失敗のエラーを生成する。
// 送信失敗は致命的ではなく、呼び出し元でログに記録して継続する。
func NewSendFailedError(conversationID string) *BotError {
	return &BotError{
		Code:     ErrCodeSendFailed,
		Message:  fmt.Sprintf("メッセージの送信に失敗しました: conversation=%s", conversationID),
		Category: "transport",
	}
}

// IsInvariantViolation はエラーが不変条件違反かどうかを判定する。
func IsInvariantViolation(err error) bool {
	var be *BotError
	return errors.As(err, &be) && be.Code == ErrCodeInvariantViolation
}
