// Package index 实现本地活动索引。
//
// 索引是一份按插入顺序（最新在前）排列的活动记录，整体序列化为单个
// JSON 文件，在链上索引器尚未接入时充当其替身。读取总是返回完整
// 快照，不分页。跨进程的读-改-写不具备原子性，并发写入方可能互相
// 覆盖，以最后一次写入为准。
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/heartchain/hcs/internal/model"
)

// envelopeVersion 当前持久化格式版本
const envelopeVersion = 1

// ErrIncompatibleFormat 持久化内容的格式或版本无法识别
var ErrIncompatibleFormat = errors.New("本地索引格式不兼容")

// Config 索引存储配置
type Config struct {
	Path string // 索引文件路径，为空表示无持久化环境
}

// envelope 带版本号的持久化信封，反序列化时显式校验
type envelope struct {
	Version   int                    `json:"version"`
	Campaigns []model.StoredCampaign `json:"campaigns"`
}

// Store 本地活动索引存储
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore 创建索引存储
func NewStore(cfg Config) *Store {
	return &Store{path: cfg.Path}
}

// Available 是否存在持久化环境
func (s *Store) Available() bool {
	return s.path != ""
}

// Prepend 将新记录插入索引头部（最新在前）
//
// 无持久化环境时为空操作。
func (s *Store) Prepend(campaign *model.StoredCampaign) error {
	if !s.Available() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	campaigns, err := s.load()
	if err != nil {
		return err
	}

	campaigns = append([]model.StoredCampaign{*campaign}, campaigns...)
	return s.save(campaigns)
}

// Snapshot 返回索引的完整快照
//
// 无持久化环境时返回空序列。
func (s *Store) Snapshot() ([]model.StoredCampaign, error) {
	if !s.Available() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Find 按ID线性查找活动，未找到时返回 (nil, nil)
func (s *Store) Find(id string) (*model.StoredCampaign, error) {
	campaigns, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	for i := range campaigns {
		if campaigns[i].ID == id {
			return &campaigns[i], nil
		}
	}
	return nil, nil
}

// Clear 清空索引
func (s *Store) Clear() error {
	if !s.Available() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(nil)
}

// load 读取并校验持久化内容
func (s *Store) load() ([]model.StoredCampaign, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取本地索引失败: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleFormat, err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: 未知版本 %d", ErrIncompatibleFormat, env.Version)
	}

	return env.Campaigns, nil
}

// save 覆盖写入索引文件
func (s *Store) save(campaigns []model.StoredCampaign) error {
	env := envelope{
		Version:   envelopeVersion,
		Campaigns: campaigns,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("序列化本地索引失败: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建索引目录失败: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("写入本地索引失败: %w", err)
	}
	return nil
}
