package model

import (
	"time"
)

// ChainCampaignModel 链上活动索引记录
type ChainCampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 链上信息
	CampaignId  int64  `json:"campaign_id" gorm:"uniqueIndex;not null"` // 合约内自增ID，从1开始
	Creator     string `json:"creator" gorm:"not null"`
	Goal        string `json:"goal" gorm:"not null"`    // uint256，十进制字符串
	Raised      string `json:"raised" gorm:"default:0"` // uint256，十进制字符串
	Completed   bool   `json:"completed" gorm:"default:false"`
	MetadataCID string `json:"metadata_cid"`

	// 创建交易信息
	TxHash   string `json:"tx_hash"`
	BlockNum int64  `json:"block_num"`
}

// TableName 自定义表名
func (ChainCampaignModel) TableName() string {
	return "chain_campaign"
}
