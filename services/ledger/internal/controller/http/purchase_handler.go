package http

import (
	"errors"
	"net/http"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseUseCase usecase.PurchaseUseCase
	logger          *logger.Logger
}

func NewPurchaseHandler(purchaseUseCase usecase.PurchaseUseCase, logger *logger.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseUseCase: purchaseUseCase,
		logger:          logger,
	}
}

type CreatePurchaseRequest struct {
	ContentID      string `json:"content_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreatePurchase godoc
// @Summary      Purchase content
// @Description  Buy a marketplace item with coins. Safe to retry with the same idempotency key.
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePurchaseRequest true "Content to purchase"
// @Success      201  {object}  entity.Purchase
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	purchase, err := h.purchaseUseCase.Purchase(c.Request.Context(), userID, req.ContentID, req.IdempotencyKey)
	if err != nil {
		h.respondPurchaseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

func (h *PurchaseHandler) respondPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrDuplicatePurchase),
		errors.Is(err, ledger.ErrTransactionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrOwnContent),
		errors.Is(err, ledger.ErrContentUnavailable),
		errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Purchase failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListPurchases godoc
// @Summary      List purchases
// @Description  List the authenticated user's purchases
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of purchases"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c, 50, 100)

	purchases, err := h.purchaseUseCase.ListPurchases(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list purchases: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases, "count": len(purchases)})
}

// Download godoc
// @Summary      Get download grant
// @Description  Issue a time-limited download link for a purchased asset
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase ID"
// @Success      200  {object}  entity.DownloadGrant
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /purchases/{id}/download [get]
func (h *PurchaseHandler) Download(c *gin.Context) {
	userID := c.GetString("user_id")
	purchaseID := c.Param("id")

	grant, err := h.purchaseUseCase.DownloadGrant(userID, purchaseID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrPurchaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrNotPurchaseOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrNoDownloadAsset):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to issue download grant: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, grant)
}
