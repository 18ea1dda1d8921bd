package task

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/logger"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler    gocron.Scheduler
	db           *gorm.DB
	chainManager *chain.Manager
	config       *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, chainManager *chain.Manager, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:    s,
		db:           db,
		chainManager: chainManager,
		config:       cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, chainManager *chain.Manager, cfg *config.Config) *Manager {
	manager := NewManager(db, chainManager, cfg)

	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerCampaignSyncJob()
}

// registerCampaignSyncJob 注册活动对账任务
func (m *Manager) registerCampaignSyncJob() {
	job, err := NewCampaignSyncJob(m.db, m.config, m.chainManager)
	if err != nil {
		logger.Error("Failed to create campaign sync job: %v", err)
		return
	}

	_, err = m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
