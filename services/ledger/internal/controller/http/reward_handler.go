package http

import (
	"errors"
	"net/http"

	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	rewardUseCase usecase.RewardUseCase
	logger        *logger.Logger
}

func NewRewardHandler(rewardUseCase usecase.RewardUseCase, logger *logger.Logger) *RewardHandler {
	return &RewardHandler{
		rewardUseCase: rewardUseCase,
		logger:        logger,
	}
}

type GrantRewardRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Trigger  string `json:"trigger" binding:"required"`
	SourceID string `json:"source_id" binding:"required"`
}

// GrantReward godoc
// @Summary      Grant engagement reward
// @Description  Credit coins for a forum engagement trigger (thread, reply, like). Idempotent per (trigger, source, user).
// @Tags         rewards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GrantRewardRequest true "Reward trigger"
// @Success      200  {object}  usecase.RewardResult
// @Failure      400  {object}  map[string]string
// @Router       /rewards [post]
func (h *RewardHandler) GrantReward(c *gin.Context) {
	var req GrantRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.rewardUseCase.GrantReward(c.Request.Context(), req.UserID, req.Trigger, req.SourceID)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownTrigger) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to grant reward: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
