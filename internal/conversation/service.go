// Package conversation は会話単位の対話状態機械を提供する。
//
// 状態はNONEとAWAITING_TIMEの2つ。AWAITING_TIMEは時刻未確定の
// リマインダーが1つ存在することを意味し、保留リマインダー参照と
// 常に同時に設定・解除される。
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/repository"
)

// Service は会話状態機械のドメインサービス。
type Service struct {
	convRepo repository.ConversationRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(convRepo repository.ConversationRepository) *Service {
	return &Service{convRepo: convRepo}
}

// LookupOrCreate は指定IDの会話を取得し、存在しなければ作成する。
// 新規会話はNONE状態・最終応答時刻なしで作成される。
func (s *Service) LookupOrCreate(ctx context.Context, id string, isPrivate bool, now time.Time) (*model.Conversation, error) {
	conv, err := s.convRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	conv = &model.Conversation{
		ID:          id,
		ContextMode: model.ContextNone,
		IsPrivate:   isPrivate,
		CreatedAt:   now,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation %s: %w", id, err)
	}
	return conv, nil
}

// BeginAwaitingTime はNONE → AWAITING_TIMEの遷移を行う。
// 時刻未確定のリマインダーを保留参照として設定する。
func (s *Service) BeginAwaitingTime(ctx context.Context, conv *model.Conversation, reminderID string) error {
	if err := s.convRepo.UpdateContext(ctx, conv.ID, model.ContextAwaitingTime, &reminderID); err != nil {
		return err
	}
	conv.ContextMode = model.ContextAwaitingTime
	conv.PendingReminderID = &reminderID
	return nil
}

// ClearContext はAWAITING_TIME → NONEの遷移を行う。
// 状態と保留リマインダー参照は常に同時にクリアされる。
func (s *Service) ClearContext(ctx context.Context, conv *model.Conversation) error {
	if err := s.convRepo.UpdateContext(ctx, conv.ID, model.ContextNone, nil); err != nil {
		return err
	}
	conv.ContextMode = model.ContextNone
	conv.PendingReminderID = nil
	return nil
}

// Touch は最終応答時刻を更新する。
// 応答を返したすべてのインテントの副作用として呼ばれ、
// NONE状態でのUNKNOWNフォールバック判定（直近30分）の基準になる。
func (s *Service) Touch(ctx context.Context, conv *model.Conversation, now time.Time) error {
	if err := s.convRepo.UpdateLastActive(ctx, conv.ID, now); err != nil {
		return err
	}
	t := now
	conv.LastActiveAt = &t
	return nil
}
