// Package chat はチャット基盤との送受信を提供する。
// Keybaseの `chat api` JSONプロトコルのクライアントを含む。
package chat

import "context"

// Message は受信メッセージを表す。
// コアが必要とするのはこの4フィールドのみで、基盤固有のフィールドは持たない。
type Message struct {
	ConversationID string
	Sender         string
	Text           string
	IsPrivate      bool
}

// Transport はチャット基盤との送受信インターフェース。
type Transport interface {
	// FetchUnread は未読メッセージを受信順で返す。
	FetchUnread(ctx context.Context) ([]Message, error)

	// Send は指定会話にテキストを送信する。
	// 送信失敗は致命的ではなく、呼び出し元でログに記録して継続する。
	Send(ctx context.Context, conversationID, text string) error
}
