package logic

import (
	"fmt"

	"github.com/heartchain/hcs/internal/model"
	"gorm.io/gorm"
)

// DonationLogic 捐款记录业务逻辑
type DonationLogic struct {
	db *gorm.DB
}

// NewDonationLogic 创建捐款记录业务逻辑
func NewDonationLogic(db *gorm.DB) *DonationLogic {
	return &DonationLogic{db: db}
}

// GetCampaignDonations 获取指定活动的捐款记录，按时间倒序
func (l *DonationLogic) GetCampaignDonations(campaignId int64, page, pageSize int) ([]model.DonationModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := l.db.Model(&model.DonationModel{}).Where("campaign_id = ?", campaignId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取捐款总数失败: %w", err)
	}

	var donations []model.DonationModel
	err := query.Order("block_num DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&donations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取捐款记录失败: %w", err)
	}

	return donations, total, nil
}

// GetDonorDonations 获取指定捐款人的全部捐款记录
func (l *DonationLogic) GetDonorDonations(donor string) ([]model.DonationModel, error) {
	var donations []model.DonationModel
	err := l.db.Where("donor = ?", donor).
		Order("block_num DESC, id DESC").
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("获取捐款记录失败: %w", err)
	}

	return donations, nil
}
