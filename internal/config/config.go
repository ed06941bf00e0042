// Package config は環境変数ベースの設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Bot
	BotUsername     string
	BotOwner        string
	DefaultTimezone string

	// Keybase
	KeybaseBin string

	// Poll
	PollInterval time.Duration

	// Send
	SendRateLimit int // 1分あたりの送信上限

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BotUsername = os.Getenv("BOT_USERNAME")
	if cfg.BotUsername == "" {
		missing = append(missing, "BOT_USERNAME")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BotOwner = getEnvString("BOT_OWNER", cfg.BotUsername)
	cfg.DefaultTimezone = getEnvString("DEFAULT_TIMEZONE", "US/Eastern")
	cfg.KeybaseBin = getEnvString("KEYBASE_BIN", "keybase")
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", 1*time.Second)
	cfg.SendRateLimit = getEnvInt("SEND_RATE_LIMIT", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	// デフォルトタイムゾーンはこの時点で妥当性を検証する
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
