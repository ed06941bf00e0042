// Package user はユーザー管理のドメインサービスを提供する。
package user

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
	"github.com/hitoshi/remindbot/internal/repository"
)

// Service はユーザー管理サービス。
// 初回メッセージ時の遅延作成、タイムゾーン設定、ヘルプ表示済みフラグを扱う。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// LookupOrCreate は指定ハンドルのユーザーを取得し、存在しなければ作成する。
// 新規ユーザーはタイムゾーン未設定で作成される。
func (s *Service) LookupOrCreate(ctx context.Context, username string, now time.Time) (*model.User, error) {
	u, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = &model.User{
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return u, nil
}

// SetTimezone はユーザーのタイムゾーンを更新する。
func (s *Service) SetTimezone(ctx context.Context, u *model.User, timezone string) error {
	if err := s.userRepo.UpdateTimezone(ctx, u.Username, timezone); err != nil {
		return err
	}
	u.Timezone = timezone
	return nil
}

// MarkSeenHelp はヘルプ表示済みフラグを立てる。
func (s *Service) MarkSeenHelp(ctx context.Context, u *model.User) error {
	if u.HasSeenHelp {
		return nil
	}
	if err := s.userRepo.MarkSeenHelp(ctx, u.Username); err != nil {
		return err
	}
	u.HasSeenHelp = true
	return nil
}

// Location はユーザーのタイムゾーンをtime.Locationに解決する。
// 未設定の場合はfallbackを解決して返す。
func (s *Service) Location(u *model.User, fallback string) (*time.Location, error) {
	name := u.Timezone
	if name == "" {
		name = fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load location %q: %w", name, err)
	}
	return loc, nil
}
