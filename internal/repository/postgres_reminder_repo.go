package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/remindbot/internal/model"
)

// PostgresReminderRepo はPostgreSQLを使用したリマインダーリポジトリ。
type PostgresReminderRepo struct {
	db *sql.DB
}

// NewPostgresReminderRepo はPostgresReminderRepoを生成する。
func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	reminder := &model.Reminder{}
	var remindAt, anchorDate sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, body, remind_at, anchor_date, created_at
		 FROM reminders WHERE id = $1`,
		id,
	).Scan(&reminder.ID, &reminder.ConversationID, &reminder.Body, &remindAt, &anchorDate, &reminder.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reminder by ID: %w", err)
	}

	if remindAt.Valid {
		t := remindAt.Time.UTC()
		reminder.RemindAt = &t
	}
	if anchorDate.Valid {
		t := anchorDate.Time
		reminder.AnchorDate = &t
	}

	return reminder, nil
}

// Create はリマインダーを作成する。時刻未確定（RemindAtがnil）でも作成できる。
func (r *PostgresReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	var remindAt, anchorDate sql.NullTime
	if reminder.RemindAt != nil {
		remindAt = sql.NullTime{Time: reminder.RemindAt.UTC(), Valid: true}
	}
	if reminder.AnchorDate != nil {
		anchorDate = sql.NullTime{Time: *reminder.AnchorDate, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, conversation_id, body, remind_at, anchor_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		reminder.ID, reminder.ConversationID, reminder.Body, remindAt, anchorDate, reminder.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	return nil
}

// Schedule は時刻未確定のリマインダーに配信時刻を設定する。
// WHERE remind_at IS NULL のガードにより、設定済みのリマインダーは
// 更新されず更新件数0が返る。不変条件違反の判定は呼び出し元が行う。
func (r *PostgresReminderRepo) Schedule(ctx context.Context, id string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET remind_at = $1 WHERE id = $2 AND remind_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to schedule reminder: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// SetAnchorDate は日付のみ確定した場合のアンカー日付を設定する。
func (r *PostgresReminderRepo) SetAnchorDate(ctx context.Context, id string, date time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET anchor_date = $1 WHERE id = $2`,
		date, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set anchor date: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewReminderNotFoundError(id)
	}
	return nil
}

// Delete は指定IDのリマインダーを削除する。
func (r *PostgresReminderRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewReminderNotFoundError(id)
	}
	return nil
}

// ListUpcoming は指定会話の時刻確定済みリマインダーを配信時刻の昇順で返す。
func (r *PostgresReminderRepo) ListUpcoming(ctx context.Context, conversationID string) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, body, remind_at, anchor_date, created_at
		 FROM reminders
		 WHERE conversation_id = $1 AND remind_at IS NOT NULL
		 ORDER BY remind_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// ListDue は全会話を横断して配信期限を迎えたリマインダーを配信時刻の昇順で返す。
func (r *PostgresReminderRepo) ListDue(ctx context.Context, now time.Time) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, body, remind_at, anchor_date, created_at
		 FROM reminders
		 WHERE remind_at IS NOT NULL AND remind_at <= $1
		 ORDER BY remind_at ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	return scanReminders(rows)
}

// scanReminders は結果セットをリマインダーのスライスに変換する。
func scanReminders(rows *sql.Rows) ([]*model.Reminder, error) {
	var reminders []*model.Reminder
	for rows.Next() {
		reminder := &model.Reminder{}
		var remindAt, anchorDate sql.NullTime
		if err := rows.Scan(
			&reminder.ID, &reminder.ConversationID, &reminder.Body,
			&remindAt, &anchorDate, &reminder.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		if remindAt.Valid {
			t := remindAt.Time.UTC()
			reminder.RemindAt = &t
		}
		if anchorDate.Valid {
			t := anchorDate.Time
			reminder.AnchorDate = &t
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminders: %w", err)
	}
	return reminders, nil
}

var _ ReminderRepository = (*PostgresReminderRepo)(nil)
