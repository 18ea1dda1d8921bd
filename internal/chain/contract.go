package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/logger"
)

// HeartChainABI 活动登记合约ABI定义
const HeartChainABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "_goal", "type": "uint256"},
			{"internalType": "string", "name": "_metadataCID", "type": "string"}
		],
		"name": "createCampaign",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_id", "type": "uint256"}
		],
		"name": "donate",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "_id", "type": "uint256"}
		],
		"name": "completeCampaign",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"name": "campaigns",
		"outputs": [
			{"internalType": "address", "name": "creator", "type": "address"},
			{"internalType": "uint256", "name": "goal", "type": "uint256"},
			{"internalType": "uint256", "name": "raised", "type": "uint256"},
			{"internalType": "bool", "name": "completed", "type": "bool"},
			{"internalType": "string", "name": "metadataCID", "type": "string"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "campaignCount",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"},
			{"indexed": true, "name": "creator", "type": "address"},
			{"indexed": false, "name": "goal", "type": "uint256"},
			{"indexed": false, "name": "metadataCID", "type": "string"}
		],
		"name": "CampaignCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"},
			{"indexed": true, "name": "donor", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "DonationReceived",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "id", "type": "uint256"}
		],
		"name": "CampaignCompleted",
		"type": "event"
	}
]`

// Contract 合约工具类
type Contract struct {
	address  common.Address // 合约地址
	abi      abi.ABI        // 合约ABI
	name     string         // 合约名称
	blockNum int64          // 合约部署的区块号
	chainId  int64          // 链ID
}

// NewContract 创建合约实例
//
// 优先从配置指定的编译产物加载ABI，未配置产物路径时使用内置的
// HeartChain ABI。
func NewContract(name string, contractCfg config.ContractConfig, chainCfg config.ChainConfig) (*Contract, error) {
	var parsedABI abi.ABI
	var err error

	if contractCfg.ArtifactPath != "" {
		parsedABI, err = loadABIFromArtifact(contractCfg.ArtifactPath)
		if err != nil {
			return nil, err
		}
	} else {
		parsedABI, err = abi.JSON(strings.NewReader(HeartChainABI))
		if err != nil {
			return nil, fmt.Errorf("failed to parse built-in ABI: %w", err)
		}
	}

	return &Contract{
		address:  common.HexToAddress(contractCfg.Address),
		abi:      parsedABI,
		name:     name,
		blockNum: contractCfg.BlockNum,
		chainId:  chainCfg.ChainId,
	}, nil
}

// loadABIFromArtifact 从编译产物文件加载ABI
//
// 同时兼容完整编译输出（含 abi 字段）与纯ABI数组两种格式。
func loadABIFromArtifact(path string) (abi.ABI, error) {
	abiData, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}

	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsedABI, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsedABI, nil
	}

	parsedABI, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsedABI, nil
}

// LoadArtifact 从编译产物文件加载ABI和部署字节码
//
// 兼容 Hardhat 产物（bytecode 为十六进制字符串）与 solc 标准输出
// （bytecode.object）。
func LoadArtifact(path string) (abi.ABI, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("failed to load artifact from %s: %w", path, err)
	}

	var artifact struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return abi.ABI{}, nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if artifact.ABI == nil {
		return abi.ABI{}, nil, fmt.Errorf("artifact %s has no abi field", path)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("failed to parse ABI from artifact: %w", err)
	}

	var bytecodeHex string
	if err := json.Unmarshal(artifact.Bytecode, &bytecodeHex); err != nil {
		var object struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(artifact.Bytecode, &object); err != nil {
			return abi.ABI{}, nil, fmt.Errorf("artifact %s has no usable bytecode", path)
		}
		bytecodeHex = object.Object
	}

	bytecode := common.FromHex(bytecodeHex)
	if len(bytecode) == 0 {
		return abi.ABI{}, nil, fmt.Errorf("artifact %s has empty bytecode", path)
	}

	return parsedABI, bytecode, nil
}

// GetAddress 获取合约地址
func (c *Contract) GetAddress() common.Address {
	return c.address
}

// GetABI 获取合约ABI
func (c *Contract) GetABI() abi.ABI {
	return c.abi
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// GetBlockNum 获取合约部署区块号
func (c *Contract) GetBlockNum() int64 {
	return c.blockNum
}

// GetChainId 获取链ID
func (c *Contract) GetChainId() int64 {
	return c.chainId
}

// ParseEvent 解析事件日志
func (c *Contract) ParseEvent(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	eventSignature := log.Topics[0].Hex()

	// 遍历ABI中的事件
	for eventName, event := range c.abi.Events {
		if event.ID.Hex() == eventSignature {
			return c.parseEvent(eventName, log, event)
		}
	}

	// 未知事件
	logger.Warn("Unknown event signature: %s in contract %s", eventSignature, c.name)
	return map[string]interface{}{
		"eventName":   "Unknown",
		"signature":   eventSignature,
		"contract":    c.name,
		"txHash":      log.TxHash.Hex(),
		"blockNumber": log.BlockNumber,
		"logIndex":    log.Index,
	}, nil
}

// parseEvent 解析事件
func (c *Contract) parseEvent(eventName string, log types.Log, event abi.Event) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	result["eventName"] = eventName
	result["contract"] = c.name
	result["txHash"] = log.TxHash.Hex()
	result["blockNumber"] = log.BlockNumber
	result["logIndex"] = log.Index

	// 解析索引参数
	if len(log.Topics) > 1 {
		topicIndex := 1
		for _, input := range event.Inputs {
			if input.Indexed && topicIndex < len(log.Topics) {
				value, err := c.parseTopicValue(log.Topics[topicIndex], input.Type)
				if err != nil {
					logger.Warn("Failed to parse indexed parameter %s: %v", input.Name, err)
					topicIndex++
					continue
				}
				result[input.Name] = value
				topicIndex++
			}
		}
	}

	// 解析非索引参数
	if len(log.Data) > 0 {
		nonIndexedInputs := make([]abi.Argument, 0)
		for _, input := range event.Inputs {
			if !input.Indexed {
				nonIndexedInputs = append(nonIndexedInputs, input)
			}
		}

		if len(nonIndexedInputs) > 0 {
			values, err := c.abi.Unpack(eventName, log.Data)
			if err != nil {
				logger.Warn("Failed to unpack non-indexed parameters: %v", err)
			} else {
				for i, input := range nonIndexedInputs {
					if i < len(values) {
						result[input.Name] = values[i]
					}
				}
			}
		}
	}

	return result, nil
}

// parseTopicValue 解析主题值
func (c *Contract) parseTopicValue(topic common.Hash, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes()), nil
	case abi.BoolTy:
		return new(big.Int).SetBytes(topic.Bytes()).Cmp(big.NewInt(0)) > 0, nil
	case abi.BytesTy:
		return topic.Bytes(), nil
	default:
		return topic.Hex(), nil
	}
}
