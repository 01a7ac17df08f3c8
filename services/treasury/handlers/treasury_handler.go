package handlers

import (
	"context"
	"errors"
	"net/http"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
	"yoforex/pkg/treasury"

	"github.com/gin-gonic/gin"
)

// TreasuryManager is the pool operations surface used by the handler.
type TreasuryManager interface {
	Spend(ctx context.Context, amount int64) (*models.BotTreasury, error)
	Status(ctx context.Context) (*models.BotTreasury, error)
}

// BotPurchaser runs a full bot purchase against the coin ledger.
type BotPurchaser interface {
	Execute(ctx context.Context, botUserID, contentID, idempotencyKey string) (*treasury.BotPurchaseResult, error)
}

type TreasuryHandler struct {
	manager   TreasuryManager
	purchaser BotPurchaser
	logger    *logger.Logger
}

func NewTreasuryHandler(manager TreasuryManager, purchaser BotPurchaser, logger *logger.Logger) *TreasuryHandler {
	return &TreasuryHandler{
		manager:   manager,
		purchaser: purchaser,
		logger:    logger,
	}
}

type SpendRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

func (h *TreasuryHandler) Spend(c *gin.Context) {
	var req SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool, err := h.manager.Spend(c.Request.Context(), req.Amount)
	if err != nil {
		h.respondTreasuryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":     pool.Balance,
		"today_spent": pool.TodaySpent,
		"daily_limit": pool.DailySpendLimit,
	})
}

type BotPurchaseRequest struct {
	BotUserID      string `json:"bot_user_id" binding:"required"`
	ContentID      string `json:"content_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

func (h *TreasuryHandler) BotPurchase(c *gin.Context) {
	var req BotPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.purchaser.Execute(c.Request.Context(), req.BotUserID, req.ContentID, req.IdempotencyKey)
	if err != nil {
		h.respondTreasuryError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *TreasuryHandler) Status(c *gin.Context) {
	pool, err := h.manager.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get treasury status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get treasury status"})
		return
	}

	c.JSON(http.StatusOK, pool)
}

func (h *TreasuryHandler) respondTreasuryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, treasury.ErrDailyLimitExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, treasury.ErrInsufficientTreasury):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrDuplicatePurchase),
		errors.Is(err, ledger.ErrTransactionInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrContentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrOwnContent),
		errors.Is(err, ledger.ErrContentUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Treasury operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
