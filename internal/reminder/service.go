// Package reminder はリマインダーのライフサイクル管理を提供する。
//
// ライフサイクル: 作成（時刻未確定でも可）→ 時刻確定 → 期限スキャンで
// 読み取り → 配信後に即削除（at-most-once配信、再送状態は持たない）。
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/repository"
)

// Service はリマインダーライフサイクルのドメインサービス。
type Service struct {
	reminderRepo repository.ReminderRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(reminderRepo repository.ReminderRepository) *Service {
	return &Service{reminderRepo: reminderRepo}
}

// Create はリマインダーを作成する。
// remindAtがnilの場合は時刻未確定のまま作成され、配信対象にならない。
// anchorDateは日付のみ確定している場合のアンカー日付（なければnil）。
func (s *Service) Create(ctx context.Context, conversationID, body string, remindAt, anchorDate *time.Time, now time.Time) (*model.Reminder, error) {
	r := &model.Reminder{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Body:           body,
		RemindAt:       remindAt,
		AnchorDate:     anchorDate,
		CreatedAt:      now,
	}
	if err := s.reminderRepo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return r, nil
}

// Complete は時刻未確定のリマインダーに配信時刻を設定する。
// すでに時刻が設定済みの場合は不変条件違反を返す。
// 状態機械が正しければこの分岐には到達しない（防御的チェック）。
func (s *Service) Complete(ctx context.Context, id string, at time.Time) error {
	n, err := s.reminderRepo.Schedule(ctx, id, at)
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewInvariantViolationError(
			fmt.Sprintf("reminder %s is already scheduled or missing", id))
	}
	return nil
}

// SetAnchorDate は日付のみ確定した場合のアンカー日付を設定する。
func (s *Service) SetAnchorDate(ctx context.Context, id string, date time.Time) error {
	return s.reminderRepo.SetAnchorDate(ctx, id, date)
}

// Find は指定IDのリマインダーを取得する。見つからない場合はエラーを返す。
func (s *Service) Find(ctx context.Context, id string) (*model.Reminder, error) {
	r, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, model.NewReminderNotFoundError(id)
	}
	return r, nil
}

// Abandon は保留中のリマインダーを破棄する。配信されることはない。
func (s *Service) Abandon(ctx context.Context, id string) error {
	return s.reminderRepo.Delete(ctx, id)
}

// Delete は配信済みのリマインダーを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.reminderRepo.Delete(ctx, id)
}

// ListUpcoming は指定会話の時刻確定済みリマインダーを配信時刻の昇順で返す。
func (s *Service) ListUpcoming(ctx context.Context, conversationID string) ([]*model.Reminder, error) {
	return s.reminderRepo.ListUpcoming(ctx, conversationID)
}

// DueScan は配信期限を迎えたリマインダーを全会話横断で返す。
// 削除しない限り同じ結果を返す（冪等）。
func (s *Service) DueScan(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	return s.reminderRepo.ListDue(ctx, now)
}
