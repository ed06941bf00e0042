package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/remindbot/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByUsername は指定ハンドルのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	var timezone sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT username, timezone, has_seen_help, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.Username, &timezone, &user.HasSeenHelp, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	if timezone.Valid {
		user.Timezone = timezone.String
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	var timezone sql.NullString
	if user.Timezone != "" {
		timezone = sql.NullString{String: user.Timezone, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, timezone, has_seen_help, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.Username, timezone, user.HasSeenHelp, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// UpdateTimezone はユーザーのタイムゾーンを更新する。
func (r *PostgresUserRepo) UpdateTimezone(ctx context.Context, username, timezone string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET timezone = $1, updated_at = now() WHERE username = $2`,
		timezone, username,
	)
	if err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(username)
	}
	return nil
}

// MarkSeenHelp はヘルプ表示済みフラグを立てる。
func (r *PostgresUserRepo) MarkSeenHelp(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET has_seen_help = TRUE, updated_at = now() WHERE username = $1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("failed to mark seen help: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(username)
	}
	return nil
}

var _ UserRepository = (*PostgresUserRepo)(nil)
