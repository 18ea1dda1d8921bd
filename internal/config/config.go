package config

import (
	"time"

	"github.com/heartchain/hcs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Index    IndexConfig    `mapstructure:"index"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainType  string                    `mapstructure:"chain_type"`  // 链类型 (ethereum, polygon, shardeum, etc.)
	ChainId    int64                     `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string                    `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string                    `mapstructure:"private_key"` // 私钥
	Contracts  map[string]ContractConfig `mapstructure:"contracts"`   // 该链上的合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address      string `mapstructure:"address"`       // 合约地址
	ArtifactPath string `mapstructure:"artifact_path"` // 编译产物路径（含ABI和字节码）
	Enabled      bool   `mapstructure:"enabled"`       // 是否启用此合约
	BlockNum     int64  `mapstructure:"block_num"`     // 合约部署区块号
}

// BackendConfig 外部 HeartChain 后端 API 配置
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`        // API 基础地址
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // 请求超时（秒）
}

// Timeout 返回请求超时时间
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// IndexConfig 本地索引配置
type IndexConfig struct {
	Path string `mapstructure:"path"` // 索引文件路径，为空表示无持久化环境
}

// UploadConfig 材料上传限制
type UploadConfig struct {
	MaxFileSizeMB    int      `mapstructure:"max_file_size_mb"`   // 单个文件大小上限（MB）
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"` // 允许的文件类型
}

// MonitorConfig 事件监控配置
type MonitorConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"` // 轮询间隔（秒）
}

// PollInterval 返回轮询间隔
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/hcs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "heartchain")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("backend.base_url", "http://localhost:8000")
	viper.SetDefault("backend.timeout_seconds", 30)
	viper.SetDefault("index.path", "data/campaign_index.json")
	viper.SetDefault("upload.max_file_size_mb", 10)
	viper.SetDefault("upload.allowed_mime_types", []string{
		"application/pdf",
		"image/jpeg",
		"image/png",
	})
	viper.SetDefault("monitor.poll_interval_seconds", 30)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
