package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/index"
	"github.com/heartchain/hcs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *index.Store) {
	t.Helper()
	store := index.NewStore(index.Config{Path: filepath.Join(t.TempDir(), "index.json")})
	client := NewClient(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, store)
	return client, store
}

func individualPayload() *model.IndividualCampaignCreate {
	return &model.IndividualCampaignCreate{
		CampaignBase: model.CampaignBase{
			Title:        "Help Maria Fight Cancer",
			Description:  "Maria needs urgent treatment and the family cannot afford it.",
			TargetAmount: 5000,
			DurationDays: 90,
			Category:     "Medical",
			Priority:     model.PriorityUrgent,
		},
		BeneficiaryName:    "Maria Lopez",
		PhoneNumber:        "9876543210",
		ResidentialAddress: "42 Hill Road, Springfield",
	}
}

func TestCreateCampaignSuccess(t *testing.T) {
	var gotPath string
	var gotBody model.IndividualCampaignCreate

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"cid":     "QmMaria123",
			"tx_hash": "0xabc123",
			"status":  "created",
		})
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	result, err := client.CreateCampaign(context.Background(), individualPayload(), model.CampaignTypeIndividual)
	require.NoError(t, err)

	assert.Equal(t, "/campaigns/individual", gotPath)
	assert.Equal(t, "Help Maria Fight Cancer", gotBody.Title)
	assert.Equal(t, "QmMaria123", result.ContentAddress)
	assert.Equal(t, "0xabc123", result.TransactionReference)

	// 成功后记录写入本地索引头部
	campaigns, err := store.Snapshot()
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	stored := campaigns[0]
	assert.Equal(t, "QmMaria123", stored.ID)
	assert.Equal(t, model.CampaignTypeIndividual, stored.CampaignType)
	assert.Equal(t, float64(0), stored.RaisedAmount)
	assert.Equal(t, model.CampaignStatusActive, stored.Status)
	assert.Equal(t, "Maria Lopez", stored.BeneficiaryName)
	require.NotNil(t, stored.BlockchainTxHash)
	assert.Equal(t, "0xabc123", *stored.BlockchainTxHash)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, stored.CreatedAt.AddDate(0, 0, 90), *stored.EndDate)
}

func TestCreateCampaignHelpMariaScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"cid": "QmHelpMaria", "tx_hash": "0x1"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	payload := &model.IndividualCampaignCreate{
		CampaignBase: model.CampaignBase{
			Title:        "Help Maria",
			Description:  "Maria needs help paying for treatment.",
			TargetAmount: 1000,
			DurationDays: 30,
			Category:     "Medical",
		},
		BeneficiaryName:    "Maria Lopez",
		PhoneNumber:        "5551234567",
		ResidentialAddress: "123 Main St",
	}

	_, err := client.CreateCampaign(context.Background(), payload, model.CampaignTypeIndividual)
	require.NoError(t, err)

	stored, err := client.GetCampaign("QmHelpMaria")
	require.NoError(t, err)
	assert.Equal(t, "Help Maria", stored.Title)
	assert.Equal(t, float64(1000), stored.TargetAmount)
	assert.Equal(t, 30, stored.DurationDays)
	assert.Equal(t, "Maria Lopez", stored.BeneficiaryName)
	assert.Equal(t, "5551234567", stored.PhoneNumber)
	assert.Equal(t, "123 Main St", stored.ResidentialAddress)
	assert.Equal(t, float64(0), stored.RaisedAmount)
	assert.Equal(t, model.CampaignStatusActive, stored.Status)

	// 创建后可通过分类过滤的列表检索到
	medical, err := client.ListCampaigns(&ListFilter{Category: "Medical"})
	require.NoError(t, err)
	require.Len(t, medical, 1)
	assert.Equal(t, "QmHelpMaria", medical[0].ID)
}

func TestCreateCampaignCharityEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"cid": "QmCharity", "tx_hash": "0xdef"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	payload := &model.CharityCampaignCreate{
		CampaignBase: model.CampaignBase{
			Title:        "Rebuild the Shelter",
			TargetAmount: 20000,
			Category:     "Animal Welfare",
		},
		OrganizationName:   "Paws Trust",
		ContactPersonName:  "John Smith",
		ContactPhoneNumber: "1234567890",
		OfficialAddress:    "1 Charity Lane",
	}

	_, err := client.CreateCampaign(context.Background(), payload, model.CampaignTypeCharity)
	require.NoError(t, err)
	assert.Equal(t, "/campaigns/charity", gotPath)
}

func TestCreateCampaignFallbackTransactionReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 后端未返回交易哈希
		json.NewEncoder(w).Encode(map[string]string{"cid": "QmNoTx"})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	result, err := client.CreateCampaign(context.Background(), individualPayload(), model.CampaignTypeIndividual)
	require.NoError(t, err)
	assert.NotEmpty(t, result.TransactionReference)
}

func TestCreateCampaignBackendDetailError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "title is required"})
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	_, err := client.CreateCampaign(context.Background(), individualPayload(), model.CampaignTypeIndividual)
	require.Error(t, err)
	assert.Equal(t, "title is required", err.Error())

	// 失败的创建不写索引
	campaigns, _ := store.Snapshot()
	assert.Empty(t, campaigns)
}

func TestCreateCampaignGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.CreateCampaign(context.Background(), individualPayload(), model.CampaignTypeIndividual)
	require.Error(t, err)
	assert.Equal(t, "创建活动失败，请稍后重试", err.Error())
}

func TestListCampaignsFilter(t *testing.T) {
	client, store := newTestClient(t, "http://unused")
	require.NoError(t, store.Prepend(&model.StoredCampaign{
		ID: "c1", CampaignType: model.CampaignTypeIndividual, Category: "Medical",
	}))
	require.NoError(t, store.Prepend(&model.StoredCampaign{
		ID: "c2", CampaignType: model.CampaignTypeCharity, Category: "Medical",
	}))
	require.NoError(t, store.Prepend(&model.StoredCampaign{
		ID: "c3", CampaignType: model.CampaignTypeCharity, Category: "Education",
	}))

	all, err := client.ListCampaigns(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	charities, err := client.ListCampaigns(&ListFilter{CampaignType: model.CampaignTypeCharity})
	require.NoError(t, err)
	assert.Len(t, charities, 2)

	medicalCharities, err := client.ListCampaigns(&ListFilter{
		CampaignType: model.CampaignTypeCharity,
		Category:     "Medical",
	})
	require.NoError(t, err)
	require.Len(t, medicalCharities, 1)
	assert.Equal(t, "c2", medicalCharities[0].ID)
}

func TestGetCampaignNotFound(t *testing.T) {
	client, store := newTestClient(t, "http://unused")
	require.NoError(t, store.Prepend(&model.StoredCampaign{ID: "c1", Title: "Found"}))

	found, err := client.GetCampaign("c1")
	require.NoError(t, err)
	assert.Equal(t, "Found", found.Title)

	_, err = client.GetCampaign("missing")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestUploadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/documents/upload", r.URL.Path)
		assert.Equal(t, "medical_bill", r.FormValue("document_type"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "bill.pdf", header.Filename)

		json.NewEncoder(w).Encode(map[string]string{
			"ipfs_hash":     "QmDoc123",
			"document_type": "medical_bill",
			"filename":      "bill.pdf",
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	doc, err := client.UploadDocument(context.Background(), DocumentFile{
		Filename: "bill.pdf",
		MimeType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake"),
	}, model.DocumentMedicalBill)
	require.NoError(t, err)
	assert.Equal(t, "QmDoc123", doc.ContentAddress)
	assert.Equal(t, model.DocumentMedicalBill, doc.DocumentType)
	assert.Equal(t, "application/pdf", doc.MimeType)
}

func TestUploadDocumentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	_, err := client.UploadDocument(context.Background(), DocumentFile{Filename: "x.pdf"}, model.DocumentOther)
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestSubmitUploadsThenCreates(t *testing.T) {
	var uploadCount int
	var createBody model.IndividualCampaignCreate

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents/upload":
			uploadCount++
			json.NewEncoder(w).Encode(map[string]string{"ipfs_hash": "QmDoc", "filename": "f"})
		case "/campaigns/individual":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			json.NewEncoder(w).Encode(map[string]string{"cid": "QmFull", "tx_hash": "0x9"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	files := []DocumentFile{
		{Filename: "bill.pdf", DocumentType: model.DocumentMedicalBill},
		{Filename: "id.png", DocumentType: model.DocumentIDProof},
	}

	result, err := client.Submit(context.Background(), individualPayload(), model.CampaignTypeIndividual, files)
	require.NoError(t, err)
	assert.Equal(t, 2, uploadCount)
	assert.Equal(t, "QmFull", result.ContentAddress)
	assert.Len(t, createBody.Documents, 2)

	campaigns, _ := store.Snapshot()
	require.Len(t, campaigns, 1)
	assert.Equal(t, 2, campaigns[0].DocumentsCount)
}

func TestSubmitAbortsOnFirstUploadFailure(t *testing.T) {
	var uploadCount, createCount int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents/upload":
			uploadCount++
			if uploadCount == 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"ipfs_hash": "QmDoc"})
		case "/campaigns/individual":
			createCount++
		}
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	files := []DocumentFile{
		{Filename: "a.pdf", DocumentType: model.DocumentMedicalBill},
		{Filename: "b.pdf", DocumentType: model.DocumentHospitalLetter},
		{Filename: "c.pdf", DocumentType: model.DocumentIDProof},
	}

	_, err := client.Submit(context.Background(), individualPayload(), model.CampaignTypeIndividual, files)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)

	// 第2个上传失败后立即中止：第3个不再上传，创建不发送，索引无写入
	assert.Equal(t, 2, uploadCount)
	assert.Equal(t, 0, createCount)
	campaigns, _ := store.Snapshot()
	assert.Empty(t, campaigns)
}

func TestSubmitRejectsDisallowedDocumentType(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	// NGO证书只适用于慈善活动
	files := []DocumentFile{
		{Filename: "cert.pdf", DocumentType: model.DocumentNGOCertificate},
	}

	_, err := client.Submit(context.Background(), individualPayload(), model.CampaignTypeIndividual, files)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocumentTypeNotAllowed)

	// 预检失败时不产生任何网络请求和索引写入
	assert.Equal(t, 0, requestCount)
	campaigns, _ := store.Snapshot()
	assert.Empty(t, campaigns)
}

func TestSubmitEnforcesUploadLimits(t *testing.T) {
	store := index.NewStore(index.Config{Path: filepath.Join(t.TempDir(), "index.json")})
	client := NewClient(Config{
		BaseURL:          "http://unused",
		Timeout:          time.Second,
		MaxFileSizeMB:    1,
		AllowedMimeTypes: []string{"application/pdf", "image/png"},
	}, store)

	oversize := []DocumentFile{{
		Filename:     "big.pdf",
		MimeType:     "application/pdf",
		Content:      make([]byte, 1024*1024+1),
		DocumentType: model.DocumentMedicalBill,
	}}
	_, err := client.Submit(context.Background(), individualPayload(), model.CampaignTypeIndividual, oversize)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)

	badMime := []DocumentFile{{
		Filename:     "scan.tiff",
		MimeType:     "image/tiff",
		Content:      []byte("x"),
		DocumentType: model.DocumentMedicalBill,
	}}
	_, err = client.Submit(context.Background(), individualPayload(), model.CampaignTypeIndividual, badMime)
	assert.ErrorIs(t, err, ErrMimeTypeNotAllowed)
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(
		config.BackendConfig{BaseURL: "http://backend:8000", TimeoutSeconds: 15},
		config.UploadConfig{MaxFileSizeMB: 10, AllowedMimeTypes: []string{"application/pdf"}},
	)

	assert.Equal(t, "http://backend:8000", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxFileSizeMB)
	assert.Equal(t, []string{"application/pdf"}, cfg.AllowedMimeTypes)
}

func TestCreateCampaignRejectsUnknownCategory(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
	}))
	defer server.Close()

	client, store := newTestClient(t, server.URL)

	payload := individualPayload()
	payload.Category = "Cryptozoology"

	_, err := client.CreateCampaign(context.Background(), payload, model.CampaignTypeIndividual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无效的活动分类")

	assert.Equal(t, 0, requestCount)
	campaigns, _ := store.Snapshot()
	assert.Empty(t, campaigns)
}
