package logic

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/heartchain/hcs/internal/model"
	"gorm.io/gorm"
)

// ErrChainCampaignNotFound 链上活动索引中不存在指定活动
var ErrChainCampaignNotFound = errors.New("活动不存在")

// CampaignLogic 链上活动索引业务逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建链上活动业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// GetCampaigns 获取活动列表
func (l *CampaignLogic) GetCampaigns(completed *bool, page, pageSize int) ([]model.ChainCampaignModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := l.db.Model(&model.ChainCampaignModel{})
	if completed != nil {
		query = query.Where("completed = ?", *completed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动总数失败: %w", err)
	}

	var campaigns []model.ChainCampaignModel
	err := query.Order("campaign_id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}

	return campaigns, total, nil
}

// GetCampaign 按链上ID获取活动详情
func (l *CampaignLogic) GetCampaign(campaignId int64) (*model.ChainCampaignModel, error) {
	var campaign model.ChainCampaignModel
	if err := l.db.Where("campaign_id = ?", campaignId).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChainCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}

	return &campaign, nil
}

// UpsertFromCreatedEvent 根据 CampaignCreated 事件写入活动记录
//
// 同一链上ID的重复事件被忽略，保持首次写入的记录。
func (l *CampaignLogic) UpsertFromCreatedEvent(campaignId int64, creator, goal, metadataCID, txHash string, blockNum int64) error {
	var existing model.ChainCampaignModel
	err := l.db.Where("campaign_id = ?", campaignId).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询活动记录失败: %w", err)
	}

	campaign := model.ChainCampaignModel{
		CampaignId:  campaignId,
		Creator:     creator,
		Goal:        goal,
		Raised:      "0",
		MetadataCID: metadataCID,
		TxHash:      txHash,
		BlockNum:    blockNum,
	}
	if err := l.db.Create(&campaign).Error; err != nil {
		return fmt.Errorf("写入活动记录失败: %w", err)
	}
	return nil
}

// AddDonation 根据 DonationReceived 事件累加已筹金额
//
// 已筹金额只增不减；重复交易哈希的捐款事件被忽略。
func (l *CampaignLogic) AddDonation(campaignId int64, donor, amount, txHash string, blockNum int64) error {
	var count int64
	if err := l.db.Model(&model.DonationModel{}).Where("tx_hash = ?", txHash).Count(&count).Error; err != nil {
		return fmt.Errorf("检查捐款记录失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	donation := model.DonationModel{
		CampaignId: campaignId,
		Donor:      donor,
		Amount:     amount,
		TxHash:     txHash,
		BlockNum:   blockNum,
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&donation).Error; err != nil {
			return fmt.Errorf("写入捐款记录失败: %w", err)
		}

		var campaign model.ChainCampaignModel
		if err := tx.Where("campaign_id = ?", campaignId).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChainCampaignNotFound
			}
			return fmt.Errorf("查询活动记录失败: %w", err)
		}

		raised, ok := new(big.Int).SetString(campaign.Raised, 10)
		if !ok {
			raised = new(big.Int)
		}
		donated, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return fmt.Errorf("无法解析捐款金额: %s", amount)
		}
		raised.Add(raised, donated)

		if err := tx.Model(&campaign).Update("raised", raised.String()).Error; err != nil {
			return fmt.Errorf("更新已筹金额失败: %w", err)
		}
		return nil
	})
}

// MarkCompleted 根据 CampaignCompleted 事件标记活动完成，单向不可逆
func (l *CampaignLogic) MarkCompleted(campaignId int64) error {
	result := l.db.Model(&model.ChainCampaignModel{}).
		Where("campaign_id = ?", campaignId).
		Update("completed", true)
	if result.Error != nil {
		return fmt.Errorf("标记活动完成失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChainCampaignNotFound
	}
	return nil
}

// GetStats 获取活动统计信息
func (l *CampaignLogic) GetStats() (map[string]interface{}, error) {
	var totalCampaigns int64
	if err := l.db.Model(&model.ChainCampaignModel{}).Count(&totalCampaigns).Error; err != nil {
		return nil, fmt.Errorf("获取活动统计失败: %w", err)
	}

	var completedCampaigns int64
	l.db.Model(&model.ChainCampaignModel{}).
		Where("completed = ?", true).
		Count(&completedCampaigns)

	var totalDonations int64
	l.db.Model(&model.DonationModel{}).Count(&totalDonations)

	var totalDonors int64
	l.db.Model(&model.DonationModel{}).Distinct("donor").Count(&totalDonors)

	return map[string]interface{}{
		"totalCampaigns":     totalCampaigns,
		"activeCampaigns":    totalCampaigns - completedCampaigns,
		"completedCampaigns": completedCampaigns,
		"totalDonations":     totalDonations,
		"totalDonors":        totalDonors,
	}, nil
}

// GetCampaignStats 获取单个活动的统计信息
func (l *CampaignLogic) GetCampaignStats(campaignId int64) (map[string]interface{}, error) {
	campaign, err := l.GetCampaign(campaignId)
	if err != nil {
		return nil, err
	}

	var donationCount int64
	l.db.Model(&model.DonationModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&donationCount)

	var donorCount int64
	l.db.Model(&model.DonationModel{}).
		Where("campaign_id = ?", campaignId).
		Distinct("donor").
		Count(&donorCount)

	// 计算完成百分比
	completionPercentage := float64(0)
	goal, okGoal := new(big.Float).SetString(campaign.Goal)
	raised, okRaised := new(big.Float).SetString(campaign.Raised)
	if okGoal && okRaised && goal.Sign() > 0 {
		ratio := new(big.Float).Quo(raised, goal)
		ratio.Mul(ratio, big.NewFloat(100))
		completionPercentage, _ = ratio.Float64()
	}

	return map[string]interface{}{
		"campaign_id":           campaign.CampaignId,
		"goal":                  campaign.Goal,
		"raised":                campaign.Raised,
		"completed":             campaign.Completed,
		"completion_percentage": completionPercentage,
		"donation_count":        donationCount,
		"donor_count":           donorCount,
		"indexed_at":            campaign.CreatedAt.Format(time.RFC3339),
	}, nil
}
