// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/remindbot/internal/bot"
	"github.com/hitoshi/remindbot/internal/chat"
	"github.com/hitoshi/remindbot/internal/config"
	"github.com/hitoshi/remindbot/internal/conversation"
	"github.com/hitoshi/remindbot/internal/database"
	"github.com/hitoshi/remindbot/internal/handler"
	"github.com/hitoshi/remindbot/internal/logger"
	"github.com/hitoshi/remindbot/internal/metrics"
	"github.com/hitoshi/remindbot/internal/reminder"
	"github.com/hitoshi/remindbot/internal/repository"
	"github.com/hitoshi/remindbot/internal/user"
	"github.com/hitoshi/remindbot/internal/worker/poll"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("bot_username", cfg.BotUsername),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runBot(cfg)
	}
}

// runBot はボットモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、ポーリングループと
// 管理用HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runBot(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	convRepo := repository.NewPostgresConversationRepo(db)
	reminderRepo := repository.NewPostgresReminderRepo(db)

	// 3. ドメインサービスの初期化
	userService := user.NewService(userRepo)
	convService := conversation.NewService(convRepo)
	reminderService := reminder.NewService(reminderRepo)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. チャットトランスポートの初期化
	transport := chat.NewKeybaseClient(cfg.KeybaseBin, slog.Default(), cfg.SendRateLimit)

	// 6. ディスパッチャの初期化
	engine := bot.NewEngine(
		userService, convService, reminderService,
		transport, collector, slog.Default(),
		cfg.BotUsername, cfg.BotOwner, cfg.DefaultTimezone,
	)

	// 7. ポーリングスケジューラの初期化
	scheduler := poll.NewScheduler(transport, engine, collector, slog.Default())

	// 8. 管理用HTTPサーバーの構築
	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker: db,
		Gatherer:      registry,
		Logger:        slog.Default(),
	})
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down bot...")
		cancel()
	}()

	go func() {
		slog.Info("admin server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("bot starting",
		slog.Duration("poll_interval", cfg.PollInterval),
		slog.String("default_timezone", cfg.DefaultTimezone),
	)

	// ポーリングループをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.PollInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("bot stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
