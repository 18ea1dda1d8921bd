package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// RegistryContractName 配置中活动登记合约的名称
const RegistryContractName = "heartchain"

// RegistryCampaign 合约中的活动存储结构
type RegistryCampaign struct {
	Creator     common.Address
	Goal        *big.Int
	Raised      *big.Int
	Completed   bool
	MetadataCID string
}

// RegistryClient 活动登记合约的读写客户端
type RegistryClient struct {
	manager  *Manager
	contract *Contract
	bound    *bind.BoundContract
}

// NewRegistryClient 创建登记合约客户端
func NewRegistryClient(manager *Manager) (*RegistryClient, error) {
	contract, err := manager.GetContract(RegistryContractName)
	if err != nil {
		return nil, err
	}

	client := manager.GetClient()
	bound := bind.NewBoundContract(contract.GetAddress(), contract.GetABI(), client, client, client)

	return &RegistryClient{
		manager:  manager,
		contract: contract,
		bound:    bound,
	}, nil
}

// auth 构造交易授权
func (r *RegistryClient) auth(ctx context.Context) (*bind.TransactOpts, error) {
	if r.manager.privateKey == nil {
		return nil, fmt.Errorf("no private key configured for transactions")
	}

	auth, err := bind.NewKeyedTransactorWithChainID(r.manager.privateKey, big.NewInt(r.manager.GetChainId()))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	return auth, nil
}

// AccountAddress 获取签名账户地址
func (r *RegistryClient) AccountAddress() (common.Address, error) {
	if r.manager.privateKey == nil {
		return common.Address{}, fmt.Errorf("no private key configured")
	}
	return crypto.PubkeyToAddress(r.manager.privateKey.PublicKey), nil
}

// CreateCampaign 发送 createCampaign 交易
func (r *RegistryClient) CreateCampaign(ctx context.Context, goal *big.Int, metadataCID string) (*types.Transaction, error) {
	auth, err := r.auth(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := r.bound.Transact(auth, "createCampaign", goal, metadataCID)
	if err != nil {
		return nil, fmt.Errorf("createCampaign transaction failed: %w", err)
	}
	return tx, nil
}

// Donate 发送 donate 交易，金额通过交易 value 附带
func (r *RegistryClient) Donate(ctx context.Context, id *big.Int, amount *big.Int) (*types.Transaction, error) {
	auth, err := r.auth(ctx)
	if err != nil {
		return nil, err
	}
	auth.Value = amount

	tx, err := r.bound.Transact(auth, "donate", id)
	if err != nil {
		return nil, fmt.Errorf("donate transaction failed: %w", err)
	}
	return tx, nil
}

// CompleteCampaign 发送 completeCampaign 交易
func (r *RegistryClient) CompleteCampaign(ctx context.Context, id *big.Int) (*types.Transaction, error) {
	auth, err := r.auth(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := r.bound.Transact(auth, "completeCampaign", id)
	if err != nil {
		return nil, fmt.Errorf("completeCampaign transaction failed: %w", err)
	}
	return tx, nil
}

// GetCampaign 读取链上活动存储
func (r *RegistryClient) GetCampaign(ctx context.Context, id *big.Int) (*RegistryCampaign, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := r.bound.Call(opts, &out, "campaigns", id); err != nil {
		return nil, fmt.Errorf("failed to read campaign %s: %w", id, err)
	}
	if len(out) < 5 {
		return nil, fmt.Errorf("unexpected campaigns() output length: %d", len(out))
	}

	return &RegistryCampaign{
		Creator:     out[0].(common.Address),
		Goal:        out[1].(*big.Int),
		Raised:      out[2].(*big.Int),
		Completed:   out[3].(bool),
		MetadataCID: out[4].(string),
	}, nil
}

// GetCampaignCount 读取链上活动总数
func (r *RegistryClient) GetCampaignCount(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := r.bound.Call(opts, &out, "campaignCount"); err != nil {
		return nil, fmt.Errorf("failed to read campaign count: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty campaignCount() output")
	}
	return out[0].(*big.Int), nil
}
