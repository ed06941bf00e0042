package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
)

// PostgresConversationRepo はPostgreSQLを使用した会話リポジトリ。
type PostgresConversationRepo struct {
	db *sql.DB
}

// NewPostgresConversationRepo はPostgresConversationRepoを生成する。
func NewPostgresConversationRepo(db *sql.DB) *PostgresConversationRepo {
	return &PostgresConversationRepo{db: db}
}

// FindByID は指定IDの会話を取得する。見つからない場合はnilを返す。
func (r *PostgresConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	conv := &model.Conversation{}
	var pendingReminderID sql.NullString
	var lastActiveAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, context_mode, pending_reminder_id, is_private, last_active_at, created_at
		 FROM conversations WHERE id = $1`,
		id,
	).Scan(&conv.ID, &conv.ContextMode, &pendingReminderID, &conv.IsPrivate, &lastActiveAt, &conv.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation by ID: %w", err)
	}

	if pendingReminderID.Valid {
		conv.PendingReminderID = &pendingReminderID.String
	}
	if lastActiveAt.Valid {
		t := lastActiveAt.Time
		conv.LastActiveAt = &t
	}

	return conv, nil
}

// Create は会話を作成する。
func (r *PostgresConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, context_mode, is_private, created_at)
		 VALUES ($1, $2, $3, $4)`,
		conv.ID, conv.ContextMode, conv.IsPrivate, conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// UpdateContext は会話の対話状態と保留リマインダー参照を同時に更新する。
func (r *PostgresConversationRepo) UpdateContext(ctx context.Context, id string, mode model.ContextMode, pendingReminderID *string) error {
	var pending sql.NullString
	if pendingReminderID != nil {
		pending = sql.NullString{String: *pendingReminderID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET context_mode = $1, pending_reminder_id = $2 WHERE id = $3`,
		mode, pending, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation context: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewConversationNotFoundError(id)
	}
	return nil
}

// UpdateLastActive は最終応答時刻を更新する。
func (r *PostgresConversationRepo) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_active_at = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewConversationNotFoundError(id)
	}
	return nil
}

var _ ConversationRepository = (*PostgresConversationRepo)(nil)
