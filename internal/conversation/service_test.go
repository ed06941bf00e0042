package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
)

// --- モック ---

type mockConvRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*model.Conversation, error)
	createFn           func(ctx context.Context, conv *model.Conversation) error
	updateContextFn    func(ctx context.Context, id string, mode model.ContextMode, pendingReminderID *string) error
	updateLastActiveFn func(ctx context.Context, id string, at time.Time) error
}

func (m *mockConvRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockConvRepo) Create(ctx context.Context, conv *model.Conversation) error {
	if m.createFn != nil {
		return m.createFn(ctx, conv)
	}
	return nil
}
func (m *mockConvRepo) UpdateContext(ctx context.Context, id string, mode model.ContextMode, pendingReminderID *string) error {
	if m.updateContextFn != nil {
		return m.updateContextFn(ctx, id, mode, pendingReminderID)
	}
	return nil
}
func (m *mockConvRepo) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	if m.updateLastActiveFn != nil {
		return m.updateLastActiveFn(ctx, id, at)
	}
	return nil
}

var testNow = time.Date(2018, 4, 9, 1, 2, 28, 0, time.UTC)

// TestLookupOrCreate_NewConversation は新規会話がNONE状態で作成されることを検証する。
func TestLookupOrCreate_NewConversation(t *testing.T) {
	var created *model.Conversation
	repo := &mockConvRepo{
		createFn: func(_ context.Context, conv *model.Conversation) error {
			created = conv
			return nil
		},
	}
	s := NewService(repo)

	conv, err := s.LookupOrCreate(context.Background(), "conv-1", true, testNow)
	if err != nil {
		t.Fatalf("LookupOrCreate returned error: %v", err)
	}
	if created == nil {
		t.Fatal("conversation should be created")
	}
	if conv.ContextMode != model.ContextNone {
		t.Errorf("context mode = %q, want %q", conv.ContextMode, model.ContextNone)
	}
	if !conv.IsPrivate {
		t.Error("is_private should be carried from the message")
	}
	if conv.LastActiveAt != nil {
		t.Error("new conversation should have no last active time")
	}
}

// TestBeginAwaitingTime_SetsModeAndReference は状態と保留参照が同時に
// 設定されることを検証する。
func TestBeginAwaitingTime_SetsModeAndReference(t *testing.T) {
	var gotMode model.ContextMode
	var gotPending *string
	repo := &mockConvRepo{
		updateContextFn: func(_ context.Context, _ string, mode model.ContextMode, pendingReminderID *string) error {
			gotMode = mode
			gotPending = pendingReminderID
			return nil
		},
	}
	s := NewService(repo)
	conv := &model.Conversation{ID: "conv-1", ContextMode: model.ContextNone}

	if err := s.BeginAwaitingTime(context.Background(), conv, "rem-1"); err != nil {
		t.Fatalf("BeginAwaitingTime returned error: %v", err)
	}
	if gotMode != model.ContextAwaitingTime {
		t.Errorf("persisted mode = %q, want %q", gotMode, model.ContextAwaitingTime)
	}
	if gotPending == nil || *gotPending != "rem-1" {
		t.Errorf("persisted pending = %v, want rem-1", gotPending)
	}
	if !conv.IsAwaitingTime() || conv.PendingReminderID == nil {
		t.Error("model should reflect the new state")
	}
}

// TestClearContext_ClearsBothTogether は状態と保留参照が同時に
// クリアされることを検証する。
func TestClearContext_ClearsBothTogether(t *testing.T) {
	var gotMode model.ContextMode
	gotPending := new(string)
	repo := &mockConvRepo{
		updateContextFn: func(_ context.Context, _ string, mode model.ContextMode, pendingReminderID *string) error {
			gotMode = mode
			gotPending = pendingReminderID
			return nil
		},
	}
	s := NewService(repo)
	pending := "rem-1"
	conv := &model.Conversation{
		ID:                "conv-1",
		ContextMode:       model.ContextAwaitingTime,
		PendingReminderID: &pending,
	}

	if err := s.ClearContext(context.Background(), conv); err != nil {
		t.Fatalf("ClearContext returned error: %v", err)
	}
	if gotMode != model.ContextNone {
		t.Errorf("persisted mode = %q, want %q", gotMode, model.ContextNone)
	}
	if gotPending != nil {
		t.Error("persisted pending should be nil")
	}
	if conv.IsAwaitingTime() || conv.PendingReminderID != nil {
		t.Error("model should reflect the cleared state")
	}
}

// TestClearContext_RepoErrorLeavesModel は永続化失敗時にモデルが
// 変わらないことを検証する。
func TestClearContext_RepoErrorLeavesModel(t *testing.T) {
	repo := &mockConvRepo{
		updateContextFn: func(_ context.Context, _ string, _ model.ContextMode, _ *string) error {
			return errors.New("db down")
		},
	}
	s := NewService(repo)
	pending := "rem-1"
	conv := &model.Conversation{
		ID:                "conv-1",
		ContextMode:       model.ContextAwaitingTime,
		PendingReminderID: &pending,
	}

	if err := s.ClearContext(context.Background(), conv); err == nil {
		t.Fatal("expected error")
	}
	if !conv.IsAwaitingTime() {
		t.Error("model should be unchanged on failure")
	}
}

// TestTouch_SetsLastActive は最終応答時刻が更新されることを検証する。
func TestTouch_SetsLastActive(t *testing.T) {
	var gotAt time.Time
	repo := &mockConvRepo{
		updateLastActiveFn: func(_ context.Context, _ string, at time.Time) error {
			gotAt = at
			return nil
		},
	}
	s := NewService(repo)
	conv := &model.Conversation{ID: "conv-1"}

	if err := s.Touch(context.Background(), conv, testNow); err != nil {
		t.Fatalf("Touch returned error: %v", err)
	}
	if !gotAt.Equal(testNow) {
		t.Errorf("persisted at = %v, want %v", gotAt, testNow)
	}
	if conv.LastActiveAt == nil || !conv.LastActiveAt.Equal(testNow) {
		t.Error("model should reflect the new last active time")
	}
}
