// Package registry 实现链上 HeartChain 合约的本地账本。
//
// 账本与合约的状态规则完全一致：活动ID从1开始自增；捐款只允许在未完成
// 的活动上进行且金额必须为正；完成操作仅限创建者且单向不可逆；超额
// 捐款被静默允许。所有操作串行执行，失败的操作不产生任何状态变更。
package registry

import (
	"errors"
	"math/big"
	"sync"
)

// 与合约 require 原因字符串一致的错误
var (
	ErrCampaignNotExist  = errors.New("campaign does not exist")
	ErrCampaignCompleted = errors.New("campaign already completed")
	ErrZeroDonation      = errors.New("donation must be greater than zero")
	ErrNotCreator        = errors.New("only creator can complete campaign")
)

// Campaign 账本中的活动记录
type Campaign struct {
	Creator     string
	Goal        *big.Int
	Raised      *big.Int
	Completed   bool
	MetadataCID string
}

// Event 账本产生的事件
type Event struct {
	Name       string // CampaignCreated, DonationReceived, CampaignCompleted
	CampaignID int64
	Creator    string
	Donor      string
	Amount     *big.Int
}

// EventSink 事件接收方
type EventSink func(Event)

// Ledger 本地活动账本
type Ledger struct {
	mu            sync.Mutex
	campaigns     map[int64]*Campaign
	campaignCount int64
	sink          EventSink
}

// NewLedger 创建账本
func NewLedger() *Ledger {
	return &Ledger{campaigns: make(map[int64]*Campaign)}
}

// SetEventSink 设置事件接收方，nil 表示不发送事件
func (l *Ledger) SetEventSink(sink EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// CreateCampaign 创建活动并返回其ID（从1开始）
func (l *Ledger) CreateCampaign(creator string, goal *big.Int, metadataCID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.campaignCount++
	id := l.campaignCount
	l.campaigns[id] = &Campaign{
		Creator:     creator,
		Goal:        new(big.Int).Set(goal),
		Raised:      new(big.Int),
		MetadataCID: metadataCID,
	}

	l.emit(Event{Name: "CampaignCreated", CampaignID: id, Creator: creator, Amount: new(big.Int).Set(goal)})
	return id
}

// Donate 向活动捐款
//
// 要求活动存在且未完成，金额大于0。不检查是否超过目标金额。
func (l *Ledger) Donate(id int64, donor string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, ok := l.campaigns[id]
	if !ok {
		return ErrCampaignNotExist
	}
	if campaign.Completed {
		return ErrCampaignCompleted
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroDonation
	}

	campaign.Raised.Add(campaign.Raised, amount)
	l.emit(Event{Name: "DonationReceived", CampaignID: id, Donor: donor, Amount: new(big.Int).Set(amount)})
	return nil
}

// CompleteCampaign 将活动标记为已完成，仅限创建者，单向不可逆
func (l *Ledger) CompleteCampaign(id int64, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, ok := l.campaigns[id]
	if !ok {
		return ErrCampaignNotExist
	}
	if caller != campaign.Creator {
		return ErrNotCreator
	}
	if campaign.Completed {
		return ErrCampaignCompleted
	}

	campaign.Completed = true
	l.emit(Event{Name: "CampaignCompleted", CampaignID: id, Creator: caller})
	return nil
}

// Campaign 返回活动记录的副本，不存在时返回 (nil, false)
func (l *Ledger) Campaign(id int64) (*Campaign, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, ok := l.campaigns[id]
	if !ok {
		return nil, false
	}

	return &Campaign{
		Creator:     campaign.Creator,
		Goal:        new(big.Int).Set(campaign.Goal),
		Raised:      new(big.Int).Set(campaign.Raised),
		Completed:   campaign.Completed,
		MetadataCID: campaign.MetadataCID,
	}, true
}

// CampaignCount 返回累计创建的活动数量
func (l *Ledger) CampaignCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.campaignCount
}

// emit 发送事件，持锁调用
func (l *Ledger) emit(event Event) {
	if l.sink != nil {
		l.sink(event)
	}
}
