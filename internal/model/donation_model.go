package model

import (
	"time"
)

// DonationModel 捐款记录
type DonationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	Donor      string `json:"donor" gorm:"not null"`
	Amount     string `json:"amount" gorm:"not null"` // uint256，十进制字符串
	TxHash     string `json:"tx_hash" gorm:"uniqueIndex"`
	BlockNum   int64  `json:"block_num"`
}

// TableName 自定义表名
func (DonationModel) TableName() string {
	return "donation"
}
