package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/logger"
	"github.com/heartchain/hcs/internal/monitor"
	"github.com/heartchain/hcs/internal/repository"
	"github.com/heartchain/hcs/internal/router"
	"github.com/heartchain/hcs/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.InitFromConfig(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链管理器
	chainManager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain manager: %v", err)
	}
	defer chainManager.Close()

	// 启动事件监控
	eventMonitor := monitor.NewEventMonitor(chainManager, db, cfg.Monitor.PollInterval())
	if err := eventMonitor.Start(); err != nil {
		logger.Error("Failed to start event monitor: %v", err)
	}
	defer eventMonitor.Stop()

	// 启动定时任务
	taskManager := task.Start(db, chainManager, cfg)
	defer taskManager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, chainManager, eventMonitor, cfg)

	// 监听退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server")
}
