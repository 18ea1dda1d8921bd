package model

import (
	"time"
)

// CampaignType 募捐活动类型，创建后不可变更
type CampaignType string

const (
	CampaignTypeIndividual CampaignType = "individual" // 个人求助
	CampaignTypeCharity    CampaignType = "charity"    // 慈善机构
)

// PriorityLevel 紧急程度
type PriorityLevel string

const (
	PriorityUrgent PriorityLevel = "urgent" // 紧急
	PriorityNormal PriorityLevel = "normal" // 普通
)

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"    // 进行中
	CampaignStatusCompleted CampaignStatus = "completed" // 已完成
)

// DocumentType 证明材料类型
type DocumentType string

const (
	DocumentMedicalBill        DocumentType = "medical_bill"        // 医疗账单
	DocumentDoctorPrescription DocumentType = "doctor_prescription" // 医生处方
	DocumentHospitalLetter     DocumentType = "hospital_letter"     // 医院证明
	DocumentIDProof            DocumentType = "id_proof"            // 身份证明
	DocumentNGOCertificate     DocumentType = "ngo_certificate"     // 机构注册证书
	DocumentLicense            DocumentType = "license"             // 执照
	DocumentTrustDeed          DocumentType = "trust_deed"          // 信托契约
	DocumentOther              DocumentType = "other"               // 其他
)

// Categories 活动分类的固定集合
var Categories = []string{
	"Medical",
	"Education",
	"Disaster Relief",
	"Community",
	"Environment",
	"Animal Welfare",
	"Technology",
	"Other",
}

// DefaultDurationDays 默认募捐周期（天）
const DefaultDurationDays = 90

// AllowedDocumentTypes 返回指定活动类型允许的材料类型
func AllowedDocumentTypes(ct CampaignType) []DocumentType {
	switch ct {
	case CampaignTypeIndividual:
		return []DocumentType{
			DocumentMedicalBill,
			DocumentDoctorPrescription,
			DocumentHospitalLetter,
			DocumentIDProof,
			DocumentOther,
		}
	case CampaignTypeCharity:
		return []DocumentType{
			DocumentNGOCertificate,
			DocumentLicense,
			DocumentTrustDeed,
			DocumentOther,
		}
	default:
		return []DocumentType{DocumentOther}
	}
}

// IsDocumentTypeAllowed 检查材料类型对指定活动类型是否允许
func IsDocumentTypeAllowed(ct CampaignType, dt DocumentType) bool {
	for _, allowed := range AllowedDocumentTypes(ct) {
		if allowed == dt {
			return true
		}
	}
	return false
}

// IsValidCategory 检查分类是否在固定集合内
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// CampaignDocument 已上传的证明材料引用
type CampaignDocument struct {
	ContentAddress string       `json:"content_address"`
	DocumentType   DocumentType `json:"document_type"`
	Filename       string       `json:"filename"`
	MimeType       string       `json:"mime_type"`
	UploadedAt     time.Time    `json:"uploaded_at,omitempty"`
}

// CampaignBase 两种活动类型共有的公开字段
type CampaignBase struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	TargetAmount float64            `json:"target_amount"`
	DurationDays int                `json:"duration_days"`
	Category     string             `json:"category"`
	Priority     PriorityLevel      `json:"priority"`
	ImageURL     *string            `json:"image_url,omitempty"`
	Documents    []CampaignDocument `json:"documents,omitempty"`
}

// IndividualCampaignCreate 个人求助活动创建请求
type IndividualCampaignCreate struct {
	CampaignBase

	// 身份信息
	BeneficiaryName    string `json:"beneficiary_name"`
	PhoneNumber        string `json:"phone_number"`
	ResidentialAddress string `json:"residential_address"`
	VerificationNotes  string `json:"verification_notes,omitempty"`
}

// CharityCampaignCreate 慈善机构活动创建请求
type CharityCampaignCreate struct {
	CampaignBase

	OrganizationName string `json:"organization_name"`

	// 联系人信息
	ContactPersonName  string `json:"contact_person_name"`
	ContactPhoneNumber string `json:"contact_phone_number"`
	OfficialAddress    string `json:"official_address"`
	VerificationNotes  string `json:"verification_notes,omitempty"`
}

// StoredCampaign 创建成功后客户端可见的活动记录
//
// ID 与后端返回的内容地址相同，分配后不可变更。
// RaisedAmount 在客户端只增不减。
type StoredCampaign struct {
	ID           string         `json:"id"`
	CampaignType CampaignType   `json:"campaign_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	TargetAmount float64        `json:"target_amount"`
	RaisedAmount float64        `json:"raised_amount"`
	DurationDays int            `json:"duration_days"`
	Category     string         `json:"category"`
	Priority     PriorityLevel  `json:"priority"`
	Status       CampaignStatus `json:"status"`
	ImageURL     *string        `json:"image_url,omitempty"`

	// 个人求助身份信息（CampaignType 为 individual 时填充）
	BeneficiaryName    string `json:"beneficiary_name,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	ResidentialAddress string `json:"residential_address,omitempty"`

	// 慈善机构信息（CampaignType 为 charity 时填充）
	OrganizationName   string `json:"organization_name,omitempty"`
	ContactPersonName  string `json:"contact_person_name,omitempty"`
	ContactPhoneNumber string `json:"contact_phone_number,omitempty"`
	OfficialAddress    string `json:"official_address,omitempty"`

	DocumentsCount int `json:"documents_count"`

	CreatedAt time.Time  `json:"created_at"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// 区块链信息，未上链时为空
	BlockchainTxHash *string `json:"blockchain_tx_hash,omitempty"`
	OnChainID        *string `json:"on_chain_id,omitempty"`
}

// EndTime 返回活动截止时间：优先使用明确的 EndDate，否则按创建时间加周期推算
func (c *StoredCampaign) EndTime() time.Time {
	if c.EndDate != nil {
		return *c.EndDate
	}
	return c.CreatedAt.AddDate(0, 0, c.DurationDays)
}
