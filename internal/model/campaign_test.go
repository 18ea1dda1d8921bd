package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowedDocumentTypes(t *testing.T) {
	individual := AllowedDocumentTypes(CampaignTypeIndividual)
	assert.Contains(t, individual, DocumentMedicalBill)
	assert.Contains(t, individual, DocumentIDProof)
	assert.NotContains(t, individual, DocumentNGOCertificate)

	charity := AllowedDocumentTypes(CampaignTypeCharity)
	assert.Contains(t, charity, DocumentNGOCertificate)
	assert.Contains(t, charity, DocumentTrustDeed)
	assert.NotContains(t, charity, DocumentMedicalBill)

	// 两种类型都允许"其他"
	assert.True(t, IsDocumentTypeAllowed(CampaignTypeIndividual, DocumentOther))
	assert.True(t, IsDocumentTypeAllowed(CampaignTypeCharity, DocumentOther))
	assert.False(t, IsDocumentTypeAllowed(CampaignTypeIndividual, DocumentLicense))
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory("Medical"))
	assert.True(t, IsValidCategory("Animal Welfare"))
	assert.False(t, IsValidCategory("medical"))
	assert.False(t, IsValidCategory("Gaming"))
	assert.False(t, IsValidCategory(""))
}

func TestStoredCampaignEndTime(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c := &StoredCampaign{CreatedAt: createdAt, DurationDays: 30}
	assert.Equal(t, createdAt.AddDate(0, 0, 30), c.EndTime())

	// 明确的截止时间优先于周期推算
	explicit := createdAt.AddDate(0, 0, 7)
	c.EndDate = &explicit
	assert.Equal(t, explicit, c.EndTime())
}
