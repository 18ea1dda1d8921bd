package task

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/logger"
	"github.com/heartchain/hcs/internal/model"
	"gorm.io/gorm"
)

// CampaignSyncJob 活动对账任务，用合约状态校正本地索引，兜底漏掉的事件
type CampaignSyncJob struct {
	db             *gorm.DB
	config         *config.Config
	registryClient *chain.RegistryClient
}

// NewCampaignSyncJob 创建活动对账任务
func NewCampaignSyncJob(db *gorm.DB, cfg *config.Config, chainManager *chain.Manager) (*CampaignSyncJob, error) {
	registryClient, err := chain.NewRegistryClient(chainManager)
	if err != nil {
		return nil, err
	}

	return &CampaignSyncJob{
		db:             db,
		config:         cfg,
		registryClient: registryClient,
	}, nil
}

// GetName 获取任务名称
func (j *CampaignSyncJob) GetName() string {
	return "campaign_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignSyncJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := j.registryClient.GetCampaignCount(ctx)
	if err != nil {
		logger.Error("Failed to get campaign count from chain: %v", err)
		return
	}

	total := count.Int64()
	syncedCount := 0

	// 活动ID从1开始连续递增
	for id := int64(1); id <= total; id++ {
		onChain, err := j.registryClient.GetCampaign(ctx, big.NewInt(id))
		if err != nil {
			logger.Error("Failed to get campaign %d from chain: %v", id, err)
			continue
		}

		if synced, err := j.syncCampaign(id, onChain); err != nil {
			logger.Error("Failed to sync campaign %d: %v", id, err)
		} else if synced {
			syncedCount++
		}
	}

	if syncedCount > 0 {
		logger.Info("Campaign sync task completed, corrected %d of %d campaigns", syncedCount, total)
	}
}

// syncCampaign 用链上状态校正单个活动记录，返回是否有修改
func (j *CampaignSyncJob) syncCampaign(id int64, onChain *chain.RegistryCampaign) (bool, error) {
	var record model.ChainCampaignModel
	err := j.db.Where("campaign_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 事件监控漏掉了创建事件，直接补建
		record = model.ChainCampaignModel{
			CampaignId:  id,
			Creator:     onChain.Creator.Hex(),
			Goal:        onChain.Goal.String(),
			Raised:      onChain.Raised.String(),
			Completed:   onChain.Completed,
			MetadataCID: onChain.MetadataCID,
		}
		if err := j.db.Create(&record).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	updates := make(map[string]interface{})
	if record.Raised != onChain.Raised.String() {
		updates["raised"] = onChain.Raised.String()
	}
	if record.Completed != onChain.Completed {
		updates["completed"] = onChain.Completed
	}
	if len(updates) == 0 {
		return false, nil
	}

	if err := j.db.Model(&record).Updates(updates).Error; err != nil {
		return false, err
	}
	return true, nil
}
