// Package wizard 实现创建活动向导的分步校验规则。
//
// 校验是表单状态的纯函数，按固定顺序执行，第一个失败的规则决定返回的
// 错误信息；除记录当前错误信息外没有其他副作用。
package wizard

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/heartchain/hcs/internal/model"
)

// Step 向导步骤
type Step string

const (
	StepBasicInfo  Step = "basic_info" // 基本信息
	StepStory      Step = "story"      // 求助故事
	StepImpactPlan Step = "impact_plan"
	StepDocuments  Step = "documents"
	StepReview     Step = "review"
)

// 校验错误信息，每条规则对应一条固定文案
var (
	ErrTypeRequired            = errors.New("请选择活动类型")
	ErrTitleTooShort           = errors.New("标题至少需要3个字符")
	ErrCategoryRequired        = errors.New("请选择活动分类")
	ErrTargetAmountInvalid     = errors.New("目标金额必须是大于0的数字")
	ErrBeneficiaryNameRequired = errors.New("受助人姓名不能为空")
	ErrPhoneNumberLength       = errors.New("联系电话长度应为10到20位")
	ErrResidentialAddressShort = errors.New("居住地址至少需要5个字符")
	ErrOrganizationRequired    = errors.New("机构名称不能为空")
	ErrContactPersonRequired   = errors.New("联系人姓名不能为空")
	ErrContactPhoneLength      = errors.New("联系人电话长度应为10到20位")
	ErrOfficialAddressShort    = errors.New("注册地址至少需要5个字符")
	ErrDescriptionTooShort     = errors.New("故事描述至少需要10个字符")
)

// FormState 向导表单状态
//
// TargetAmount 以字符串保存，在校验时解析。
type FormState struct {
	CampaignType model.CampaignType
	Title        string
	Description  string
	TargetAmount string
	DurationDays int
	Category     string
	Priority     model.PriorityLevel
	ImageURL     string

	// 个人求助
	BeneficiaryName    string
	PhoneNumber        string
	ResidentialAddress string

	// 慈善机构
	OrganizationName   string
	ContactPersonName  string
	ContactPhoneNumber string
	OfficialAddress    string

	Documents []model.CampaignDocument
}

// ValidateStep 校验指定步骤，返回第一条不满足的规则错误
func ValidateStep(step Step, state *FormState) error {
	switch step {
	case StepBasicInfo:
		return validateBasicInfo(state)
	case StepStory:
		return validateStory(state)
	default:
		// impact_plan、documents 为可选内容，review 不再校验
		return nil
	}
}

// validateBasicInfo 校验基本信息步骤，顺序固定、首错即返
func validateBasicInfo(state *FormState) error {
	if state.CampaignType == "" {
		return ErrTypeRequired
	}
	if utf8.RuneCountInString(strings.TrimSpace(state.Title)) < 3 {
		return ErrTitleTooShort
	}
	if strings.TrimSpace(state.Category) == "" {
		return ErrCategoryRequired
	}
	if !isPositiveAmount(state.TargetAmount) {
		return ErrTargetAmountInvalid
	}

	switch state.CampaignType {
	case model.CampaignTypeIndividual:
		if strings.TrimSpace(state.BeneficiaryName) == "" {
			return ErrBeneficiaryNameRequired
		}
		if !lengthBetween(state.PhoneNumber, 10, 20) {
			return ErrPhoneNumberLength
		}
		if utf8.RuneCountInString(strings.TrimSpace(state.ResidentialAddress)) < 5 {
			return ErrResidentialAddressShort
		}
	case model.CampaignTypeCharity:
		if strings.TrimSpace(state.OrganizationName) == "" {
			return ErrOrganizationRequired
		}
		if strings.TrimSpace(state.ContactPersonName) == "" {
			return ErrContactPersonRequired
		}
		if !lengthBetween(state.ContactPhoneNumber, 10, 20) {
			return ErrContactPhoneLength
		}
		if utf8.RuneCountInString(strings.TrimSpace(state.OfficialAddress)) < 5 {
			return ErrOfficialAddressShort
		}
	}

	return nil
}

// validateStory 校验求助故事步骤
func validateStory(state *FormState) error {
	if utf8.RuneCountInString(strings.TrimSpace(state.Description)) < 10 {
		return ErrDescriptionTooShort
	}
	return nil
}

// isPositiveAmount 检查金额字符串是否为大于0的数字
func isPositiveAmount(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v > 0
}

// lengthBetween 检查字符串长度是否在闭区间内
func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= min && n <= max
}
