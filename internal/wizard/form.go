package wizard

import (
	"strconv"
	"strings"

	"github.com/heartchain/hcs/internal/model"
)

// Form 带错误信息的向导表单
//
// 任何字段更新都会先清空当前错误信息，再等待下一次校验。
type Form struct {
	state  FormState
	errMsg string
}

// NewForm 创建向导表单
func NewForm() *Form {
	return &Form{
		state: FormState{
			DurationDays: model.DefaultDurationDays,
			Priority:     model.PriorityNormal,
		},
	}
}

// State 返回当前表单状态的副本
func (f *Form) State() FormState {
	return f.state
}

// Update 更新表单字段，更新前乐观地清空当前错误信息
func (f *Form) Update(mutate func(*FormState)) {
	f.errMsg = ""
	mutate(&f.state)
}

// Validate 校验指定步骤，失败时记录错误信息并返回 false
func (f *Form) Validate(step Step) bool {
	if err := ValidateStep(step, &f.state); err != nil {
		f.errMsg = err.Error()
		return false
	}
	f.errMsg = ""
	return true
}

// Err 返回当前错误信息，无错误时为空字符串
func (f *Form) Err() string {
	return f.errMsg
}

// IndividualPayload 从表单状态构造个人求助创建请求
//
// 调用前应已通过 basic_info 与 story 步骤的校验。
func (f *Form) IndividualPayload() *model.IndividualCampaignCreate {
	base := f.basePayload()
	return &model.IndividualCampaignCreate{
		CampaignBase:       base,
		BeneficiaryName:    f.state.BeneficiaryName,
		PhoneNumber:        f.state.PhoneNumber,
		ResidentialAddress: f.state.ResidentialAddress,
	}
}

// CharityPayload 从表单状态构造慈善机构创建请求
func (f *Form) CharityPayload() *model.CharityCampaignCreate {
	base := f.basePayload()
	return &model.CharityCampaignCreate{
		CampaignBase:       base,
		OrganizationName:   f.state.OrganizationName,
		ContactPersonName:  f.state.ContactPersonName,
		ContactPhoneNumber: f.state.ContactPhoneNumber,
		OfficialAddress:    f.state.OfficialAddress,
	}
}

// basePayload 构造共有字段
func (f *Form) basePayload() model.CampaignBase {
	base := model.CampaignBase{
		Title:        f.state.Title,
		Description:  f.state.Description,
		DurationDays: f.state.DurationDays,
		Category:     f.state.Category,
		Priority:     f.state.Priority,
		Documents:    f.state.Documents,
	}
	if base.DurationDays == 0 {
		base.DurationDays = model.DefaultDurationDays
	}
	if base.Priority == "" {
		base.Priority = model.PriorityNormal
	}
	if f.state.ImageURL != "" {
		url := f.state.ImageURL
		base.ImageURL = &url
	}
	// 目标金额已在 basic_info 步骤确认可解析
	if v, err := strconv.ParseFloat(strings.TrimSpace(f.state.TargetAmount), 64); err == nil {
		base.TargetAmount = v
	}
	return base
}
