package http

import (
	"errors"
	"net/http"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawalUseCase usecase.WithdrawalUseCase
	logger            *logger.Logger
}

func NewWithdrawalHandler(withdrawalUseCase usecase.WithdrawalUseCase, logger *logger.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalUseCase: withdrawalUseCase,
		logger:            logger,
	}
}

type CreateWithdrawalRequest struct {
	AmountCoins int64  `json:"amount_coins" binding:"required,min=1"`
	PayoutRef   string `json:"payout_ref"`
}

// CreateWithdrawal godoc
// @Summary      Request withdrawal
// @Description  Request a coin withdrawal. Requires approval from two admins before the debit is posted.
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateWithdrawalRequest true "Withdrawal request"
// @Success      201  {object}  entity.Withdrawal
// @Failure      400  {object}  map[string]string
// @Failure      402  {object}  map[string]string
// @Router       /withdrawals [post]
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.withdrawalUseCase.Request(c.Request.Context(), userID, req.AmountCoins, req.PayoutRef)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, ledger.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create withdrawal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, w)
}

// ListWithdrawals godoc
// @Summary      List own withdrawals
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of withdrawals"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /withdrawals [get]
func (h *WithdrawalHandler) ListWithdrawals(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c, 50, 100)

	withdrawals, err := h.withdrawalUseCase.ListOwn(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list withdrawals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals, "count": len(withdrawals)})
}

// ListPending godoc
// @Summary      List pending withdrawals (admin)
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of withdrawals"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /admin/withdrawals [get]
func (h *WithdrawalHandler) ListPending(c *gin.Context) {
	limit, offset := pagination(c, 50, 100)

	withdrawals, err := h.withdrawalUseCase.ListPending(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list pending withdrawals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals, "count": len(withdrawals)})
}

// Approve godoc
// @Summary      Approve withdrawal (admin)
// @Description  First call records approval; a second distinct admin's call posts the debit.
// @Tags         withdrawals
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Withdrawal ID"
// @Success      200  {object}  entity.Withdrawal
// @Failure      402  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/withdrawals/{id}/approve [post]
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	adminID := c.GetString("user_id")
	withdrawalID := c.Param("id")

	w, err := h.withdrawalUseCase.Approve(c.Request.Context(), adminID, withdrawalID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrWithdrawalNotPending),
			errors.Is(err, usecase.ErrSameApprover),
			errors.Is(err, usecase.ErrSelfApproval):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to approve withdrawal: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, w)
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject godoc
// @Summary      Reject withdrawal (admin)
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Withdrawal ID"
// @Param        request body RejectWithdrawalRequest true "Rejection reason"
// @Success      200  {object}  entity.Withdrawal
// @Failure      409  {object}  map[string]string
// @Router       /admin/withdrawals/{id}/reject [post]
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	adminID := c.GetString("user_id")
	withdrawalID := c.Param("id")

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.withdrawalUseCase.Reject(c.Request.Context(), adminID, withdrawalID, req.Reason)
	if err != nil {
		if errors.Is(err, usecase.ErrWithdrawalNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to reject withdrawal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, w)
}

type MarkPaidRequest struct {
	PayoutRef string `json:"payout_ref"`
}

// MarkPaid godoc
// @Summary      Mark withdrawal paid (admin)
// @Description  Record that the approved withdrawal was paid out off-ledger.
// @Tags         withdrawals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Withdrawal ID"
// @Param        request body MarkPaidRequest false "Payout reference"
// @Success      200  {object}  entity.Withdrawal
// @Failure      409  {object}  map[string]string
// @Router       /admin/withdrawals/{id}/paid [post]
func (h *WithdrawalHandler) MarkPaid(c *gin.Context) {
	adminID := c.GetString("user_id")
	withdrawalID := c.Param("id")

	var req MarkPaidRequest
	_ = c.ShouldBindJSON(&req)

	w, err := h.withdrawalUseCase.MarkPaid(c.Request.Context(), adminID, withdrawalID, req.PayoutRef)
	if err != nil {
		if errors.Is(err, usecase.ErrWithdrawalNotApproved) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to mark withdrawal paid: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, w)
}
