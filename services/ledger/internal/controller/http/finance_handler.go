package http

import (
	"errors"
	"net/http"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type FinanceHandler struct {
	financeUseCase usecase.FinanceUseCase
	logger         *logger.Logger
}

func NewFinanceHandler(financeUseCase usecase.FinanceUseCase, logger *logger.Logger) *FinanceHandler {
	return &FinanceHandler{
		financeUseCase: financeUseCase,
		logger:         logger,
	}
}

// ListTransactions godoc
// @Summary      List ledger transactions (admin)
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "Transaction type filter"
// @Param        limit query int false "Number of transactions"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/finance/transactions [get]
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	limit, offset := pagination(c, 50, 200)
	txType := c.Query("type")

	transactions, err := h.financeUseCase.ListTransactions(txType, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list ledger transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

// GetTransaction godoc
// @Summary      Get ledger transaction with entries (admin)
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Success      200  {object}  entity.LedgerTransaction
// @Failure      404  {object}  map[string]string
// @Router       /admin/finance/transactions/{id} [get]
func (h *FinanceHandler) GetTransaction(c *gin.Context) {
	tx, err := h.financeUseCase.GetTransaction(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	c.JSON(http.StatusOK, tx)
}

// ListReconciliationRuns godoc
// @Summary      List reconciliation runs (admin)
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of runs"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/finance/reconciliation [get]
func (h *FinanceHandler) ListReconciliationRuns(c *gin.Context) {
	limit, offset := pagination(c, 20, 100)

	runs, err := h.financeUseCase.ListReconciliationRuns(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list reconciliation runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

type CreateAdjustmentRequest struct {
	WalletID  string `json:"wallet_id" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=debit credit"`
	Amount    int64  `json:"amount" binding:"required,min=1"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateAdjustment godoc
// @Summary      Request balance adjustment (admin)
// @Description  Open a dual-approval adjustment against a wallet, the remediation path for reconciliation drift.
// @Tags         finance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateAdjustmentRequest true "Adjustment"
// @Success      201  {object}  entity.Adjustment
// @Failure      400  {object}  map[string]string
// @Router       /admin/finance/adjustments [post]
func (h *FinanceHandler) CreateAdjustment(c *gin.Context) {
	adminID := c.GetString("user_id")

	var req CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.financeUseCase.RequestAdjustment(c.Request.Context(), adminID, req.WalletID, req.Direction, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create adjustment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, a)
}

// ApproveAdjustment godoc
// @Summary      Approve balance adjustment (admin)
// @Description  First call records approval; a second distinct admin's call posts the entry.
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Adjustment ID"
// @Success      200  {object}  entity.Adjustment
// @Failure      409  {object}  map[string]string
// @Router       /admin/finance/adjustments/{id}/approve [post]
func (h *FinanceHandler) ApproveAdjustment(c *gin.Context) {
	adminID := c.GetString("user_id")

	a, err := h.financeUseCase.ApproveAdjustment(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAdjustmentNotPending),
			errors.Is(err, usecase.ErrOwnAdjustment),
			errors.Is(err, usecase.ErrSameApprover):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to approve adjustment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, a)
}

// ListAdjustments godoc
// @Summary      List adjustments (admin)
// @Tags         finance
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of adjustments"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/finance/adjustments [get]
func (h *FinanceHandler) ListAdjustments(c *gin.Context) {
	limit, offset := pagination(c, 50, 100)

	adjustments, err := h.financeUseCase.ListAdjustments(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list adjustments: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments, "count": len(adjustments)})
}
