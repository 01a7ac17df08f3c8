package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/entity"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPurchaseUseCase is a mock implementation of PurchaseUseCase
type MockPurchaseUseCase struct {
	mock.Mock
}

func (m *MockPurchaseUseCase) Purchase(ctx context.Context, buyerID, contentID, idempotencyKey string) (*entity.Purchase, error) {
	args := m.Called(buyerID, contentID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Purchase), args.Error(1)
}

func (m *MockPurchaseUseCase) ListPurchases(buyerID string, limit, offset int) ([]*entity.Purchase, error) {
	args := m.Called(buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Purchase), args.Error(1)
}

func (m *MockPurchaseUseCase) DownloadGrant(buyerID, purchaseID string) (*entity.DownloadGrant, error) {
	args := m.Called(buyerID, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DownloadGrant), args.Error(1)
}

var _ usecase.PurchaseUseCase = (*MockPurchaseUseCase)(nil)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestCreatePurchase_Success(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.CreatePurchase(c)
	})

	mockPurchase := &entity.Purchase{
		ID:           "purchase-1",
		BuyerID:      "buyer-123",
		SellerID:     "seller-456",
		ContentID:    "content-789",
		PriceCoins:   100,
		SellerCredit: 80,
		PlatformFee:  20,
	}

	mockUseCase.On("Purchase", "buyer-123", "content-789", "key-1").Return(mockPurchase, nil)

	body := `{"content_id":"content-789","idempotency_key":"key-1"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var response entity.Purchase
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "purchase-1", response.ID)
	assert.Equal(t, int64(100), response.PriceCoins)

	mockUseCase.AssertExpectations(t)
}

func TestCreatePurchase_HeaderKeyOverridesBody(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.CreatePurchase(c)
	})

	mockPurchase := &entity.Purchase{ID: "purchase-1", BuyerID: "buyer-123", ContentID: "content-789"}
	mockUseCase.On("Purchase", "buyer-123", "content-789", "header-key").Return(mockPurchase, nil)

	body := `{"content_id":"content-789","idempotency_key":"body-key"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "header-key")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCreatePurchase_InsufficientFunds(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.CreatePurchase(c)
	})

	mockUseCase.On("Purchase", "buyer-123", "content-789", "").Return(nil, ledger.ErrInsufficientFunds)

	body := `{"content_id":"content-789"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCreatePurchase_Duplicate(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.CreatePurchase(c)
	})

	mockUseCase.On("Purchase", "buyer-123", "content-789", "").Return(nil, ledger.ErrDuplicatePurchase)

	body := `{"content_id":"content-789"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCreatePurchase_OwnContent(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "seller-456")
		handler.CreatePurchase(c)
	})

	mockUseCase.On("Purchase", "seller-456", "content-789", "").Return(nil, ledger.ErrOwnContent)

	body := `{"content_id":"content-789"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestCreatePurchase_MissingContentID(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.POST("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.CreatePurchase(c)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/purchases", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "Purchase")
}

func TestListPurchases_Success(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.GET("/purchases", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.ListPurchases(c)
	})

	mockPurchases := []*entity.Purchase{
		{ID: "purchase-1", BuyerID: "buyer-123", ContentID: "content-1", PriceCoins: 100},
		{ID: "purchase-2", BuyerID: "buyer-123", ContentID: "content-2", PriceCoins: 50},
	}

	mockUseCase.On("ListPurchases", "buyer-123", 50, 0).Return(mockPurchases, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/purchases", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(2), response["count"])

	mockUseCase.AssertExpectations(t)
}

func TestDownload_Success(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.GET("/purchases/:id/download", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.Download(c)
	})

	grant := &entity.DownloadGrant{
		PurchaseID: "purchase-1",
		URL:        "https://cdn.example.com/asset?sig=abc",
	}

	mockUseCase.On("DownloadGrant", "buyer-123", "purchase-1").Return(grant, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/purchases/purchase-1/download", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response entity.DownloadGrant
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, grant.URL, response.URL)

	mockUseCase.AssertExpectations(t)
}

func TestDownload_NotOwner(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.GET("/purchases/:id/download", func(c *gin.Context) {
		c.Set("user_id", "other-user")
		handler.Download(c)
	})

	mockUseCase.On("DownloadGrant", "other-user", "purchase-1").Return(nil, usecase.ErrNotPurchaseOwner)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/purchases/purchase-1/download", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestDownload_NotFound(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.GET("/purchases/:id/download", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.Download(c)
	})

	mockUseCase.On("DownloadGrant", "buyer-123", "missing").Return(nil, usecase.ErrPurchaseNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/purchases/missing/download", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestDownload_InternalError(t *testing.T) {
	mockUseCase := new(MockPurchaseUseCase)
	logger := logger.New()
	handler := NewPurchaseHandler(mockUseCase, logger)

	router := setupTestRouter()
	router.GET("/purchases/:id/download", func(c *gin.Context) {
		c.Set("user_id", "buyer-123")
		handler.Download(c)
	})

	mockUseCase.On("DownloadGrant", "buyer-123", "purchase-1").Return(nil, errors.New("storage unavailable"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/purchases/purchase-1/download", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockUseCase.AssertExpectations(t)
}
