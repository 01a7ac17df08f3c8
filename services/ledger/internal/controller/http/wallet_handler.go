package http

import (
	"net/http"
	"strconv"

	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletUseCase usecase.WalletUseCase
	logger        *logger.Logger
}

func NewWalletHandler(walletUseCase usecase.WalletUseCase, logger *logger.Logger) *WalletHandler {
	return &WalletHandler{
		walletUseCase: walletUseCase,
		logger:        logger,
	}
}

// GetWallet godoc
// @Summary      Get wallet
// @Description  Get coin balance for the authenticated user
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.Wallet
// @Router       /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID := c.GetString("user_id")

	wallet, err := h.walletUseCase.GetWallet(userID)
	if err != nil {
		h.logger.Error("Failed to get wallet: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// GetTransactions godoc
// @Summary      Get coin transactions
// @Description  Get coin transaction history for the authenticated user
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of transactions"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c, 50, 100)

	transactions, err := h.walletUseCase.GetTransactions(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions, "count": len(transactions)})
}

func pagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxLimit {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
