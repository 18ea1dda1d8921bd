package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/logger"
	"github.com/heartchain/hcs/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// 单次日志查询覆盖的区块数，过大容易触发节点限流
const batchSize = int64(500)

// EventMonitor 区块链事件监控器，轮询链上日志并交给处理器落库
type EventMonitor struct {
	chainManager   *chain.Manager
	db             *gorm.DB
	eventProcessor *EventProcessor
	pollInterval   time.Duration
	startBlockNum  int64
	retryCount     int
	ctx            context.Context
	cancel         context.CancelFunc
	mu             sync.RWMutex // 保护 startBlockNum 的并发访问
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(chainManager *chain.Manager, db *gorm.DB, pollInterval time.Duration) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	if pollInterval <= 0 {
		pollInterval = time.Second * 30
	}

	return &EventMonitor{
		chainManager:   chainManager,
		db:             db,
		eventProcessor: NewEventProcessor(db),
		pollInterval:   pollInterval,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动监控
func (m *EventMonitor) Start() error {
	logger.Info("Starting blockchain event monitor")

	contracts := m.chainManager.GetContracts()
	if len(contracts) == 0 {
		return fmt.Errorf("no contracts available for monitoring")
	}
	logger.Info("Found %d contracts to monitor", len(contracts))

	currentBlock, err := m.chainManager.CurrentBlockNumber(m.ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to blockchain: %w", err)
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	startBlock := m.resolveStartBlock()
	if startBlock == 0 {
		return fmt.Errorf("failed to determine start block number")
	}

	m.mu.Lock()
	m.startBlockNum = startBlock
	m.mu.Unlock()

	logger.Info("Starting monitor from block %d", startBlock)

	go m.loop()

	return nil
}

// Stop 停止监控
func (m *EventMonitor) Stop() {
	logger.Info("Stopping blockchain event monitor")
	m.cancel()
}

// loop 监控循环
func (m *EventMonitor) loop() {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.chainManager.CurrentBlockNumber(m.ctx)
			if err != nil {
				m.handleError(err)
				continue
			}

			fromBlock := m.getStartBlock()
			if fromBlock > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(fromBlock, currentBlock); err != nil {
				m.handleError(err)
				continue
			}
			m.retryCount = 0
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *EventMonitor) processBlocksInBatches(fromBlock, toBlock int64) error {
	logger.Debug("Processing blocks from %d to %d", fromBlock, toBlock)

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		if err := m.processBatchBlocks(currentFrom, currentTo); err != nil {
			return fmt.Errorf("error processing blocks %d-%d: %w", currentFrom, currentTo, err)
		}

		m.updateStartBlock(currentTo + 1)
	}

	return nil
}

// processBatchBlocks 批量处理区块
func (m *EventMonitor) processBatchBlocks(fromBlock, toBlock int64) error {
	contracts := m.chainManager.GetContracts()

	contractAddresses, contractMap := m.deployedContracts(contracts, toBlock)
	if len(contractAddresses) == 0 {
		logger.Debug("No deployed contracts for blocks %d-%d", fromBlock, toBlock)
		return nil
	}

	logs, err := m.chainManager.FilterContractLogs(m.ctx, contractAddresses, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	if len(logs) == 0 {
		return nil
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	logsByContract := m.groupLogsByContract(logs)
	groupCount := len(logsByContract)
	if groupCount == 0 {
		return nil
	}

	// 每个合约的日志在独立协程中顺序处理，保证单合约内事件有序
	tempPool, err := ants.NewPool(groupCount)
	if err != nil {
		return fmt.Errorf("failed to create temporary pool for %d groups: %w", groupCount, err)
	}
	defer tempPool.Release()

	var wg sync.WaitGroup
	for address, contractLogs := range logsByContract {
		contract := contractMap[address]
		if contract == nil {
			logger.Warn("Unknown contract address: %s", address.Hex())
			continue
		}

		logs := contractLogs
		wg.Add(1)
		err := tempPool.Submit(func() {
			defer wg.Done()
			m.processContractLogs(contract, logs)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// processContractLogs 顺序处理单个合约的日志
func (m *EventMonitor) processContractLogs(contract *chain.Contract, logs []types.Log) {
	for _, log := range logs {
		eventData, err := contract.ParseEvent(log)
		if err != nil {
			logger.Error("Error parsing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		eventDataJSON, err := json.Marshal(eventData)
		if err != nil {
			logger.Error("Failed to marshal event data to JSON: %v", err)
			continue
		}

		eventName, _ := eventData["eventName"].(string)
		event := &model.EventModel{
			ContractAddress: contract.GetAddress().Hex(),
			ContractName:    contract.GetName(),
			BlockNum:        int64(log.BlockNumber),
			TxHash:          log.TxHash.Hex(),
			LogIndex:        int64(log.Index),
			EventName:       eventName,
			Data:            string(eventDataJSON),
		}

		if err := m.eventProcessor.ProcessEvent(event, eventData); err != nil {
			logger.Error("Error processing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		logger.Debug("Processed %s event for contract %s at block %d", eventName, contract.GetName(), log.BlockNumber)
	}
}

// resolveStartBlock 确定起始区块号：配置的最小部署区块与库中已处理区块取较大者
func (m *EventMonitor) resolveStartBlock() int64 {
	contracts := m.chainManager.GetContracts()
	if len(contracts) == 0 {
		logger.Error("No contracts found in configuration")
		return 0
	}

	minDeployBlock := int64(0)
	first := true
	for _, contract := range contracts {
		if first || contract.GetBlockNum() < minDeployBlock {
			minDeployBlock = contract.GetBlockNum()
			first = false
		}
	}

	var maxProcessedBlock int64
	err := m.db.Model(&model.EventModel{}).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&maxProcessedBlock).Error
	if err != nil {
		logger.Error("Failed to get max processed block number from database: %v", err)
		return minDeployBlock
	}

	finalStartBlock := minDeployBlock
	if maxProcessedBlock > minDeployBlock {
		finalStartBlock = maxProcessedBlock + 1
	}

	logger.Info("Start block resolved: %d (config: %d, db: %d)", finalStartBlock, minDeployBlock, maxProcessedBlock)
	return finalStartBlock
}

// getStartBlock 读取起始区块号
func (m *EventMonitor) getStartBlock() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startBlockNum
}

// updateStartBlock 更新起始区块号
func (m *EventMonitor) updateStartBlock(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
}

// handleError 记录错误并退避，避免连续失败时刷屏
func (m *EventMonitor) handleError(err error) {
	m.retryCount++
	logger.Error("Monitor encountered error (retry %d): %v", m.retryCount, err)

	backoff := time.Duration(m.retryCount) * time.Second * 5
	if backoff > time.Minute {
		backoff = time.Minute
	}
	select {
	case <-m.ctx.Done():
	case <-time.After(backoff):
	}
}

// GetStatus 获取监控状态
func (m *EventMonitor) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"start_block":    m.getStartBlock(),
		"contract_count": len(m.chainManager.GetContracts()),
		"chain_info":     m.chainManager.GetHealthStatus(),
	}
}

// deployedContracts 过滤出目标区块范围内已部署的合约
func (m *EventMonitor) deployedContracts(contracts map[string]*chain.Contract, toBlock int64) ([]common.Address, map[common.Address]*chain.Contract) {
	var contractAddresses []common.Address
	contractMap := make(map[common.Address]*chain.Contract)

	for _, contract := range contracts {
		if toBlock < contract.GetBlockNum() {
			continue
		}
		address := contract.GetAddress()
		contractAddresses = append(contractAddresses, address)
		contractMap[address] = contract
	}

	return contractAddresses, contractMap
}

// groupLogsByContract 按合约地址分组日志
func (m *EventMonitor) groupLogsByContract(logs []types.Log) map[common.Address][]types.Log {
	logsByContract := make(map[common.Address][]types.Log)
	for _, log := range logs {
		logsByContract[log.Address] = append(logsByContract[log.Address], log)
	}
	return logsByContract
}
