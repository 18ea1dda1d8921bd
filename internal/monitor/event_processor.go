package monitor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/heartchain/hcs/internal/logic"
	"github.com/heartchain/hcs/internal/model"
	"gorm.io/gorm"
)

// EventProcessor 将解析后的链上事件应用到索引库
type EventProcessor struct {
	db            *gorm.DB
	campaignLogic *logic.CampaignLogic
}

// NewEventProcessor 创建事件处理器
func NewEventProcessor(db *gorm.DB) *EventProcessor {
	return &EventProcessor{
		db:            db,
		campaignLogic: logic.NewCampaignLogic(db),
	}
}

// ProcessEvent 处理单个事件：先落事件记录，再按事件类型更新索引
func (p *EventProcessor) ProcessEvent(event *model.EventModel, data map[string]interface{}) error {
	// 同一交易内的同一日志只处理一次
	var count int64
	err := p.db.Model(&model.EventModel{}).
		Where("tx_hash = ? AND log_index = ?", event.TxHash, event.LogIndex).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("检查事件记录失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := p.db.Create(event).Error; err != nil {
		return fmt.Errorf("写入事件记录失败: %w", err)
	}

	if err := p.applyEvent(event, data); err != nil {
		return err
	}

	return p.db.Model(event).Update("processed", true).Error
}

// applyEvent 按事件类型更新索引
func (p *EventProcessor) applyEvent(event *model.EventModel, data map[string]interface{}) error {
	switch event.EventName {
	case "CampaignCreated":
		return p.campaignLogic.UpsertFromCreatedEvent(
			eventBigInt(data, "id"),
			eventAddress(data, "creator"),
			eventAmount(data, "goal"),
			eventString(data, "metadataCID"),
			event.TxHash,
			event.BlockNum,
		)
	case "DonationReceived":
		return p.campaignLogic.AddDonation(
			eventBigInt(data, "id"),
			eventAddress(data, "donor"),
			eventAmount(data, "amount"),
			event.TxHash,
			event.BlockNum,
		)
	case "CampaignCompleted":
		return p.campaignLogic.MarkCompleted(eventBigInt(data, "id"))
	default:
		// 未知事件仅落库，不更新索引
		return nil
	}
}

// eventBigInt 从事件数据中提取整数参数
func eventBigInt(data map[string]interface{}, key string) int64 {
	if v, ok := data[key].(*big.Int); ok {
		return v.Int64()
	}
	return 0
}

// eventAmount 从事件数据中提取 uint256 金额的十进制字符串
func eventAmount(data map[string]interface{}, key string) string {
	if v, ok := data[key].(*big.Int); ok {
		return v.String()
	}
	return "0"
}

// eventAddress 从事件数据中提取地址参数
func eventAddress(data map[string]interface{}, key string) string {
	if v, ok := data[key].(common.Address); ok {
		return v.Hex()
	}
	return ""
}

// eventString 从事件数据中提取字符串参数
func eventString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
