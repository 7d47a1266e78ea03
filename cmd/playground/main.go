package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/alicebob/miniredis/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/group-minigames/internal/bot"
	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/game"
	"github.com/palemoky/group-minigames/internal/game/room"
	"github.com/palemoky/group-minigames/internal/logger"
	"github.com/palemoky/group-minigames/internal/storage"
	"github.com/palemoky/group-minigames/internal/ui"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	logPath := flag.String("log", "", "日志文件路径，默认不输出日志")
	groupID := flag.String("group", "playground", "模拟的群号")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	// 日志会打乱终端界面
	if *logPath != "" {
		if err := logger.Init("debug", *logPath); err != nil {
			log.Fatalf("初始化日志失败: %v", err)
		}
		defer logger.Close()
	} else {
		logger.SetOutput(io.Discard)
	}

	// 内存 Redis，/game rank 在本次运行内可用
	mr, err := miniredis.Run()
	if err != nil {
		log.Fatalf("启动内存 Redis 失败: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	results := storage.NewResultStore(rdb)

	notifier := ui.NewChatNotifier(64)
	manager := room.NewManager(game.NewRegistry(cfg.Game), notifier, room.Options{
		WaitingTimeout: cfg.Game.WaitingTimeoutDuration(),
		RunningTimeout: cfg.Game.RunningTimeoutDuration(),
		PollInterval:   cfg.Game.PollIntervalDuration(),
		PendingTimeout: cfg.Game.PendingTimeoutDuration(),
		Authorizer:     bot.NewAuthorizer([]string{"admin"}, nil),
		Recorder:       results,
	})

	dispatcher := bot.NewDispatcher(manager, results, notifier, nil, cfg.Bot.CommandPrefix)

	p := tea.NewProgram(ui.NewModel(dispatcher, notifier.Messages(), *groupID), tea.WithAltScreen())
	_, err = p.Run()

	notifier.Close()
	manager.Shutdown()
	if err != nil {
		log.Printf("运行模拟器时出错: %v", err)
		os.Exit(1)
	}
}
