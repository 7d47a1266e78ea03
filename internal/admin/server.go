// Package admin 管理 HTTP 接口：健康检查、Prometheus 指标与房间列表
package admin

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palemoky/group-minigames/internal/config"
	"github.com/palemoky/group-minigames/internal/game/room"
	"github.com/palemoky/group-minigames/internal/logger"
)

const checkTimeout = 3 * time.Second

// RoomLister 列出活动房间，由 room.Manager 实现
type RoomLister interface {
	Rooms() []room.Snapshot
}

// Check 一项依赖检查，返回 nil 表示健康
type Check func(ctx context.Context) error

// Server 管理 HTTP 服务
type Server struct {
	router    *gin.Engine
	http      *http.Server
	rooms     RoomLister
	checks    map[string]Check
	startTime time.Time
}

// HealthResponse /health 返回体
type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Rooms     int               `json:"rooms"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewServer 创建管理服务。gin 的运行模式由调用方在启动时设置
func NewServer(cfg config.AdminConfig, rooms RoomLister, checks map[string]Check) *Server {
	s := &Server{
		router:    gin.New(),
		rooms:     rooms,
		checks:    checks,
		startTime: time.Now(),
	}
	s.router.Use(gin.Recovery())

	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/rooms", s.listRooms)

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动监听，直到 Shutdown 返回 nil
func (s *Server) Start() error {
	logger.LogInfo("📊 管理接口启动在 http://%s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	results := make(map[string]string, len(s.checks)+1)
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = "unhealthy: " + err.Error()
			healthy = false
			continue
		}
		results[name] = "healthy"
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	results["memory_alloc_mb"] = strconv.FormatFloat(float64(m.Alloc)/1024/1024, 'f', 2, 64)

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Rooms:     len(s.rooms.Rooms()),
		Checks:    results,
	})
}

func (s *Server) listRooms(c *gin.Context) {
	rooms := s.rooms.Rooms()
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })

	if status := c.Query("status"); status != "" {
		filtered := rooms[:0]
		for _, r := range rooms {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}
		rooms = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(rooms),
		"rooms": rooms,
	})
}
