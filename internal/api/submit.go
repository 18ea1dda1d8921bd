package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartchain/hcs/internal/logger"
	"github.com/heartchain/hcs/internal/model"
)

// 材料预检错误
var (
	ErrDocumentTooLarge       = errors.New("材料文件超过大小限制")
	ErrDocumentTypeNotAllowed = errors.New("该活动类型不支持此材料类型")
	ErrMimeTypeNotAllowed     = errors.New("不支持的文件格式")
)

// DocumentFile 待上传的材料文件
type DocumentFile struct {
	Filename     string
	MimeType     string
	Content      []byte
	DocumentType model.DocumentType
}

// Submit 完成整个提交流程：先本地预检全部材料，再逐个上传，全部成功后
// 创建活动
//
// 材料按给定顺序依次上传，第一个失败立即中止整个提交：不发送创建
// 请求，也不向本地索引写入任何记录。进行中的提交没有取消机制，失败
// 不重试。
func (c *Client) Submit(ctx context.Context, payload interface{}, variant Variant, files []DocumentFile) (*CreateResult, error) {
	for i, file := range files {
		if err := c.validateDocument(file, variant); err != nil {
			return nil, fmt.Errorf("第%d个材料校验失败: %w", i+1, err)
		}
	}

	documents := make([]model.CampaignDocument, 0, len(files))
	for i, file := range files {
		doc, err := c.UploadDocument(ctx, file, file.DocumentType)
		if err != nil {
			logger.Warn("Document upload %d/%d failed, aborting submission: %v", i+1, len(files), err)
			return nil, fmt.Errorf("第%d个材料上传失败: %w", i+1, err)
		}
		documents = append(documents, *doc)
	}

	switch p := payload.(type) {
	case *model.IndividualCampaignCreate:
		p.Documents = documents
	case *model.CharityCampaignCreate:
		p.Documents = documents
	default:
		return nil, fmt.Errorf("不支持的创建请求类型: %T", payload)
	}

	return c.CreateCampaign(ctx, payload, variant)
}

// validateDocument 上传前的本地预检，与后端的材料校验规则保持一致
func (c *Client) validateDocument(file DocumentFile, variant Variant) error {
	if !model.IsDocumentTypeAllowed(variant, file.DocumentType) {
		return fmt.Errorf("%w: %s", ErrDocumentTypeNotAllowed, file.DocumentType)
	}
	if c.maxFileSizeMB > 0 && len(file.Content) > c.maxFileSizeMB*1024*1024 {
		return fmt.Errorf("%w: 最大%dMB", ErrDocumentTooLarge, c.maxFileSizeMB)
	}
	if len(c.allowedMimeTypes) > 0 {
		allowed := false
		for _, m := range c.allowedMimeTypes {
			if m == file.MimeType {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s", ErrMimeTypeNotAllowed, file.MimeType)
		}
	}
	return nil
}
