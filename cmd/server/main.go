package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/group-minigames/internal/admin"
	"github.com/palemoky/group-minigames/internal/bot"
	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/game"
	"github.com/palemoky/group-minigames/internal/game/room"
	"github.com/palemoky/group-minigames/internal/logger"
	"github.com/palemoky/group-minigames/internal/onebot"
	"github.com/palemoky/group-minigames/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	envPath := flag.String("env", ".env", ".env 文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.LogWarn("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}
	if err := cfg.LoadEnv(*envPath); err != nil {
		logger.LogError("读取环境变量失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.LogError("初始化日志失败: %v", err)
		os.Exit(1)
	}
	if path := logger.GetLogPath(); path != "" {
		logger.LogInfo("📝 日志写入: %s", path)
	}

	err = run(cfg)
	if err != nil {
		logger.LogError("服务异常退出: %v", err)
	}
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis 不可用时照常开局，结果写入失败只记录日志
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.LogWarn("⚠️ Redis 连接失败，排行榜暂不可用: %v", err)
	}
	cancel()
	results := storage.NewResultStore(rdb)

	client := onebot.NewClient(cfg.OneBot)

	manager := room.NewManager(game.NewRegistry(cfg.Game), client, room.Options{
		WaitingTimeout: cfg.Game.WaitingTimeoutDuration(),
		RunningTimeout: cfg.Game.RunningTimeoutDuration(),
		PollInterval:   cfg.Game.PollIntervalDuration(),
		PendingTimeout: cfg.Game.PendingTimeoutDuration(),
		Authorizer:     bot.NewAuthorizer(cfg.Bot.Superusers, client),
		Recorder:       results,
	})

	limiter := bot.NewLimiter(cfg.Security.ChatLimit)
	defer limiter.Close()

	dispatcher := bot.NewDispatcher(manager, results, client, limiter, cfg.Bot.CommandPrefix)
	client.OnEvent = func(ev *onebot.Event) {
		if msg, ok := bot.FromEvent(ev, client.SelfID()); ok {
			dispatcher.Handle(ctx, msg)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	adminServer := admin.NewServer(cfg.Admin, manager, map[string]admin.Check{
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"onebot": func(context.Context) error {
			if !client.IsConnected() {
				return onebot.ErrNotConnected
			}
			return nil
		},
	})

	errCh := make(chan error, 2)
	go func() {
		if err := adminServer.Start(); err != nil {
			errCh <- fmt.Errorf("管理接口: %w", err)
		}
	}()
	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("OneBot 客户端: %w", err)
		}
	}()

	logger.LogInfo("🎮 群小游戏机器人启动中，OneBot: %s，可用游戏: %s", cfg.OneBot.URL, game.Names())

	var runErr error
	select {
	case <-ctx.Done():
		logger.LogInfo("正在关闭服务...")
	case runErr = <-errCh:
		stop()
	}

	manager.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.LogWarn("管理接口关闭失败: %v", err)
	}

	logger.LogInfo("👋 服务已关闭")
	return runErr
}
