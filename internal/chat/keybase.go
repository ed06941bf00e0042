package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/time/rate"
)

// runner は `keybase chat api` の呼び出しを抽象化する。テスト用に差し替え可能。
type runner func(ctx context.Context, payload string) ([]byte, error)

// KeybaseClient はKeybaseのchat api一発実行プロトコルを使用するTransport実装。
// 送信はrate.Limiterで流量制御する（チャット基盤側の制限対策）。
type KeybaseClient struct {
	bin     string
	logger  *slog.Logger
	limiter *rate.Limiter
	run     runner
}

// NewKeybaseClient はKeybaseClientの新しいインスタンスを生成する。
// sendPerMinuteが0以下の場合はデフォルト値60を使用する。
func NewKeybaseClient(bin string, logger *slog.Logger, sendPerMinute int) *KeybaseClient {
	if sendPerMinute <= 0 {
		sendPerMinute = 60
	}
	c := &KeybaseClient{
		bin:     bin,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(sendPerMinute)/60.0), sendPerMinute),
	}
	c.run = c.execRun
	return c
}

// execRun はkeybaseバイナリを起動してchat apiペイロードを実行する。
func (c *KeybaseClient) execRun(ctx context.Context, payload string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, "chat", "api", "-m", payload)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run keybase chat api: %w", err)
	}
	return out, nil
}

// --- chat api のレスポンス構造 ---

type listResponse struct {
	Result struct {
		Conversations []struct {
			ID      string `json:"id"`
			Unread  bool   `json:"unread"`
			Channel struct {
				Name        string `json:"name"`
				MembersType string `json:"members_type"`
			} `json:"channel"`
		} `json:"conversations"`
	} `json:"result"`
}

type readResponse struct {
	Result struct {
		Messages []struct {
			Error string `json:"error,omitempty"`
			Msg   struct {
				Sender struct {
					Username string `json:"username"`
				} `json:"sender"`
				Content struct {
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"content"`
			} `json:"msg"`
		} `json:"messages"`
	} `json:"result"`
}

// FetchUnread は未読の会話を列挙し、各会話の未読メッセージを受信順で返す。
// テキスト以外のメッセージ（編集、参加通知など）は無視する。
func (c *KeybaseClient) FetchUnread(ctx context.Context) ([]Message, error) {
	out, err := c.run(ctx, `{"method": "list"}`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	var list listResponse
	if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("failed to parse list response: %w", err)
	}

	var messages []Message
	for _, conv := range list.Result.Conversations {
		if !conv.Unread {
			continue
		}

		payload, err := json.Marshal(map[string]any{
			"method": "read",
			"params": map[string]any{
				"options": map[string]any{
					"conversation_id": conv.ID,
					"unread_only":     true,
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build read payload: %w", err)
		}

		out, err := c.run(ctx, string(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to read conversation %s: %w", conv.ID, err)
		}

		var read readResponse
		if err := json.Unmarshal(out, &read); err != nil {
			return nil, fmt.Errorf("failed to parse read response: %w", err)
		}

		isPrivate := isPrivateChannel(conv.Channel.Name, conv.Channel.MembersType)

		// read APIは新しい順で返すため、受信順に直してから追加する
		for i := len(read.Result.Messages) - 1; i >= 0; i-- {
			m := read.Result.Messages[i]
			if m.Error != "" {
				c.logger.Warn("メッセージの読み取りに失敗しました",
					slog.String("conversation_id", conv.ID),
					slog.String("error", m.Error),
				)
				continue
			}
			if m.Msg.Content.Type != "text" {
				continue
			}
			messages = append(messages, Message{
				ConversationID: conv.ID,
				Sender:         m.Msg.Sender.Username,
				Text:           m.Msg.Content.Text.Body,
				IsPrivate:      isPrivate,
			})
		}
	}

	return messages, nil
}

// Send は指定会話にテキストを送信する。
func (c *KeybaseClient) Send(ctx context.Context, conversationID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for send rate limiter: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"method": "send",
		"params": map[string]any{
			"options": map[string]any{
				"conversation_id": conversationID,
				"message":         map[string]any{"body": text},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build send payload: %w", err)
	}

	if _, err := c.run(ctx, string(payload)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// isPrivateChannel は1対1のダイレクトチャンネルかどうかを判定する。
// Keybaseのimpteamチャンネル名は "alice,bob" 形式でメンバーを列挙する。
func isPrivateChannel(name, membersType string) bool {
	if membersType == "team" {
		return false
	}
	return strings.Count(name, ",") == 1
}

var _ Transport = (*KeybaseClient)(nil)
