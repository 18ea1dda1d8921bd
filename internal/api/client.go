// Package api 实现访问外部 HeartChain 后端的客户端。
//
// 创建成功后的活动记录会写入本地索引，浏览与详情读取全部走本地索引，
// 不再回源后端。任何一次失败的调用立即向调用方返回错误，不做重试。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/index"
	"github.com/heartchain/hcs/internal/model"
)

// Variant 活动创建端点的变体
type Variant = model.CampaignType

// ErrCampaignNotFound 本地索引中不存在指定ID的活动
var ErrCampaignNotFound = errors.New("活动不存在")

// ErrUploadFailed 材料上传失败的通用错误
var ErrUploadFailed = errors.New("材料上传失败")

// Config 客户端配置，显式传入，不依赖包级共享状态
type Config struct {
	BaseURL string        // 后端 API 基础地址
	Timeout time.Duration // 单次请求超时

	// 材料上传限制，零值表示不限制
	MaxFileSizeMB    int
	AllowedMimeTypes []string
}

// Client HeartChain 后端客户端
type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            *index.Store
	maxFileSizeMB    int
	allowedMimeTypes []string
	now              func() time.Time
}

// CreateResult 创建活动的后端返回结果
type CreateResult struct {
	TransactionReference string `json:"transaction_reference"`
	ContentAddress       string `json:"content_address"`
	Status               string `json:"status"`
}

// createResponse 后端创建端点的原始响应
type createResponse struct {
	CID    string `json:"cid"`
	TxHash string `json:"tx_hash"`
	Status string `json:"status"`
}

// errorResponse 后端错误响应体
type errorResponse struct {
	Detail string `json:"detail"`
}

// ListFilter 列表查询的可选过滤条件，精确匹配
type ListFilter struct {
	CampaignType model.CampaignType
	Category     string
}

// ConfigFromApp 从应用配置构建客户端配置
func ConfigFromApp(backend config.BackendConfig, upload config.UploadConfig) Config {
	return Config{
		BaseURL:          backend.BaseURL,
		Timeout:          backend.Timeout(),
		MaxFileSizeMB:    upload.MaxFileSizeMB,
		AllowedMimeTypes: upload.AllowedMimeTypes,
	}
}

// NewClient 创建客户端
func NewClient(cfg Config, store *index.Store) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		store:            store,
		maxFileSizeMB:    cfg.MaxFileSizeMB,
		allowedMimeTypes: cfg.AllowedMimeTypes,
		now:              time.Now,
	}
}

// CreateCampaign 向后端提交创建请求
//
// variant 决定请求端点（individual 或 charity），payload 必须是与之匹配的
// *model.IndividualCampaignCreate 或 *model.CharityCampaignCreate。
// 成功后合成 StoredCampaign 记录并插入本地索引头部。
func (c *Client) CreateCampaign(ctx context.Context, payload interface{}, variant Variant) (*CreateResult, error) {
	if base := payloadBase(payload); base != nil && !model.IsValidCategory(base.Category) {
		return nil, fmt.Errorf("无效的活动分类: %s", base.Category)
	}

	endpoint := fmt.Sprintf("%s/campaigns/%s", c.baseURL, variant)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化创建请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("创建活动请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取创建响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(backendErrorMessage(respBody))
	}

	var raw createResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("解析创建响应失败: %w", err)
	}

	result := &CreateResult{
		TransactionReference: raw.TxHash,
		ContentAddress:       raw.CID,
		Status:               raw.Status,
	}
	if result.TransactionReference == "" {
		result.TransactionReference = uuid.NewString()
	}

	stored := c.buildStoredCampaign(payload, variant, result)
	if err := c.store.Prepend(stored); err != nil {
		return nil, fmt.Errorf("写入本地索引失败: %w", err)
	}

	return result, nil
}

// ListCampaigns 从本地索引返回活动的完整快照，可选精确过滤
//
// 无持久化环境时返回空序列。
func (c *Client) ListCampaigns(filter *ListFilter) ([]model.StoredCampaign, error) {
	campaigns, err := c.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return campaigns, nil
	}

	result := make([]model.StoredCampaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		if filter.CampaignType != "" && campaign.CampaignType != filter.CampaignType {
			continue
		}
		if filter.Category != "" && campaign.Category != filter.Category {
			continue
		}
		result = append(result, campaign)
	}
	return result, nil
}

// GetCampaign 按ID查找活动
func (c *Client) GetCampaign(id string) (*model.StoredCampaign, error) {
	campaign, err := c.store.Find(id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// UploadDocument 以 multipart 方式上传单个证明材料
//
// 任何非成功响应都返回通用上传错误，不做重试。
func (c *Client) UploadDocument(ctx context.Context, file DocumentFile, documentType model.DocumentType) (*model.CampaignDocument, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("document", file.Filename)
	if err != nil {
		return nil, fmt.Errorf("构造上传请求失败: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("构造上传请求失败: %w", err)
	}
	if err := writer.WriteField("document_type", string(documentType)); err != nil {
		return nil, fmt.Errorf("构造上传请求失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("构造上传请求失败: %w", err)
	}

	endpoint := c.baseURL + "/documents/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("构造上传请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrUploadFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrUploadFailed
	}

	var uploaded struct {
		IPFSHash     string `json:"ipfs_hash"`
		DocumentType string `json:"document_type"`
		Filename     string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, ErrUploadFailed
	}

	return &model.CampaignDocument{
		ContentAddress: uploaded.IPFSHash,
		DocumentType:   documentType,
		Filename:       file.Filename,
		MimeType:       file.MimeType,
		UploadedAt:     c.now(),
	}, nil
}

// backendErrorMessage 提取后端错误详情，响应体无法解析时返回通用信息
func backendErrorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return errResp.Detail
	}
	return "创建活动失败，请稍后重试"
}

// buildStoredCampaign 根据创建请求与后端结果合成本地索引记录
func (c *Client) buildStoredCampaign(payload interface{}, variant Variant, result *CreateResult) *model.StoredCampaign {
	now := c.now()

	stored := &model.StoredCampaign{
		ID:           result.ContentAddress,
		CampaignType: variant,
		RaisedAmount: 0,
		Status:       model.CampaignStatusActive,
		CreatedAt:    now,
	}
	if result.TransactionReference != "" {
		txHash := result.TransactionReference
		stored.BlockchainTxHash = &txHash
	}

	switch p := payload.(type) {
	case *model.IndividualCampaignCreate:
		applyBase(stored, &p.CampaignBase)
		stored.BeneficiaryName = p.BeneficiaryName
		stored.PhoneNumber = p.PhoneNumber
		stored.ResidentialAddress = p.ResidentialAddress
	case *model.CharityCampaignCreate:
		applyBase(stored, &p.CampaignBase)
		stored.OrganizationName = p.OrganizationName
		stored.ContactPersonName = p.ContactPersonName
		stored.ContactPhoneNumber = p.ContactPhoneNumber
		stored.OfficialAddress = p.OfficialAddress
	}

	endDate := now.AddDate(0, 0, stored.DurationDays)
	stored.EndDate = &endDate

	return stored
}

// payloadBase 取出创建请求中的公共字段，未知类型返回nil
func payloadBase(payload interface{}) *model.CampaignBase {
	switch p := payload.(type) {
	case *model.IndividualCampaignCreate:
		return &p.CampaignBase
	case *model.CharityCampaignCreate:
		return &p.CampaignBase
	}
	return nil
}

// applyBase 拷贝共有字段
func applyBase(stored *model.StoredCampaign, base *model.CampaignBase) {
	stored.Title = base.Title
	stored.Description = base.Description
	stored.TargetAmount = base.TargetAmount
	stored.DurationDays = base.DurationDays
	stored.Category = base.Category
	stored.Priority = base.Priority
	stored.ImageURL = base.ImageURL
	stored.DocumentsCount = len(base.Documents)
	if stored.DurationDays == 0 {
		stored.DurationDays = model.DefaultDurationDays
	}
	if stored.Priority == "" {
		stored.Priority = model.PriorityNormal
	}
}
