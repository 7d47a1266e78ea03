package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 机器人配置
type Config struct {
	OneBot   OneBotConfig   `yaml:"onebot"`
	Redis    RedisConfig    `yaml:"redis"`
	Admin    AdminConfig    `yaml:"admin"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
}

// OneBotConfig 聊天平台（OneBot v11 正向 WebSocket）配置
type OneBotConfig struct {
	URL         string `yaml:"url"`
	AccessToken string `yaml:"access_token"`
	SelfID      string `yaml:"self_id"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AdminConfig 管理 HTTP 服务配置
type AdminConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr 返回监听地址
func (c *AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GameConfig 游戏配置
type GameConfig struct {
	WaitingTimeout int `yaml:"waiting_timeout"`  // 等待玩家超时（秒）
	RunningTimeout int `yaml:"running_timeout"`  // 游戏无操作超时（秒）
	PollInterval   int `yaml:"poll_interval"`    // 超时检查间隔（秒）
	PendingTimeout int `yaml:"pending_timeout"`  // 等待目标超时（秒）
	MaxPlayers     int `yaml:"max_players"`      // 通用房间人数上限
	DuelMaxPlayers int `yaml:"duel_max_players"` // 恶魔轮盘人数上限
}

// WaitingTimeoutDuration 返回等待阶段超时时长
func (c *GameConfig) WaitingTimeoutDuration() time.Duration {
	return time.Duration(c.WaitingTimeout) * time.Second
}

// RunningTimeoutDuration 返回游戏阶段超时时长
func (c *GameConfig) RunningTimeoutDuration() time.Duration {
	return time.Duration(c.RunningTimeout) * time.Second
}

// PollIntervalDuration 返回超时检查间隔
func (c *GameConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// PendingTimeoutDuration 返回等待目标请求的有效期
func (c *GameConfig) PendingTimeoutDuration() time.Duration {
	return time.Duration(c.PendingTimeout) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	ChatLimit ChatLimitConfig `yaml:"chat_limit"`
}

// ChatLimitConfig 每个用户的游戏消息速率限制
type ChatLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// BotConfig 机器人行为配置
type BotConfig struct {
	Superusers    []string `yaml:"superusers"`
	CommandPrefix string   `yaml:"command_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.OneBot.URL == "" {
		cfg.OneBot.URL = "ws://127.0.0.1:3001"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Admin.Host == "" {
		cfg.Admin.Host = "127.0.0.1"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 1781
	}
	if cfg.Game.WaitingTimeout == 0 {
		cfg.Game.WaitingTimeout = 300
	}
	if cfg.Game.RunningTimeout == 0 {
		cfg.Game.RunningTimeout = 600
	}
	if cfg.Game.PollInterval == 0 {
		cfg.Game.PollInterval = 30
	}
	if cfg.Game.PendingTimeout == 0 {
		cfg.Game.PendingTimeout = 60
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = 8
	}
	if cfg.Game.DuelMaxPlayers == 0 {
		cfg.Game.DuelMaxPlayers = 4
	}
	if cfg.Security.ChatLimit.PerSecond == 0 {
		cfg.Security.ChatLimit.PerSecond = 2
	}
	if cfg.Security.ChatLimit.Burst == 0 {
		cfg.Security.ChatLimit.Burst = 5
	}
	if cfg.Bot.CommandPrefix == "" {
		cfg.Bot.CommandPrefix = "/game"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// LoadEnv 读取 .env（可选）并用环境变量覆盖配置
func (cfg *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("加载 %s 失败: %w", f, err)
		}
	}

	if v := os.Getenv("GM_ONEBOT_URL"); v != "" {
		cfg.OneBot.URL = v
	}
	if v := os.Getenv("GM_ONEBOT_TOKEN"); v != "" {
		cfg.OneBot.AccessToken = v
	}
	if v := os.Getenv("GM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("GM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("GM_ADMIN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GM_ADMIN_PORT 无效: %w", err)
		}
		cfg.Admin.Port = port
	}
	return nil
}
