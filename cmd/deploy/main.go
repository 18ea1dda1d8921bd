package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/logger"
)

func main() {
	artifactPath := flag.String("artifact", "", "编译产物路径（含ABI和字节码）")
	envFile := flag.String("env", "", "部署后写入合约地址的env文件，可选")
	flag.Parse()

	cfg := config.Load()
	if err := logger.InitFromConfig(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	path := *artifactPath
	if path == "" {
		if contractCfg, ok := cfg.Chain.Contracts[chain.RegistryContractName]; ok {
			path = contractCfg.ArtifactPath
		}
	}
	if path == "" {
		logger.Fatal("No artifact path provided (use -artifact or configure chain.contracts.%s.artifact_path)", chain.RegistryContractName)
	}

	parsedABI, bytecode, err := chain.LoadArtifact(path)
	if err != nil {
		logger.Fatal("Failed to load artifact: %v", err)
	}

	if cfg.Chain.PrivateKey == "" {
		logger.Fatal("No private key configured for deployment")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.Chain.PrivateKey, "0x"))
	if err != nil {
		logger.Fatal("Failed to parse private key: %v", err)
	}

	client, err := ethclient.Dial(cfg.Chain.RpcUrl)
	if err != nil {
		logger.Fatal("Failed to connect to RPC %s: %v", cfg.Chain.RpcUrl, err)
	}
	defer client.Close()

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(cfg.Chain.ChainId))
	if err != nil {
		logger.Fatal("Failed to create transactor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5)
	defer cancel()
	auth.Context = ctx

	_, tx, _, err := bind.DeployContract(auth, parsedABI, bytecode, client)
	if err != nil {
		logger.Fatal("Failed to deploy contract: %v", err)
	}

	logger.Info("Deploy transaction sent: %s", tx.Hash().Hex())

	deployedAddress, err := bind.WaitDeployed(ctx, client, tx)
	if err != nil {
		logger.Fatal("Failed waiting for contract deployment: %v", err)
	}

	receipt, err := client.TransactionReceipt(ctx, tx.Hash())
	if err != nil {
		logger.Fatal("Failed to fetch deploy receipt: %v", err)
	}

	fmt.Printf("contract address: %s\n", deployedAddress.Hex())
	fmt.Printf("deployed at block: %d\n", receipt.BlockNumber.Int64())

	if *envFile != "" {
		updateEnvFile(*envFile, "CONTRACT_ADDRESS", deployedAddress.Hex())
	}
}

// updateEnvFile 将合约地址写回env文件，已有同名键则覆盖。
// 写入失败不影响部署结果，地址已经打印到标准输出。
func updateEnvFile(path, key, value string) {
	line := key + "=" + value

	data, err := os.ReadFile(path)
	if err != nil {
		_ = os.WriteFile(path, []byte(line+"\n"), 0o644)
		return
	}

	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), key+"=") {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	_ = os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
