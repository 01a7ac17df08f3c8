package usecase

import (
	"context"
	"errors"
	"fmt"

	"yoforex/pkg/config"
	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
	"yoforex/pkg/queue"
)

var ErrUnknownTrigger = errors.New("unknown reward trigger")

// EventPublisher is the slice of the queue client the usecases need.
type EventPublisher interface {
	PublishLedgerEvent(routingKey string, payload interface{}) error
}

type RewardUseCase interface {
	GrantReward(ctx context.Context, userID, trigger, sourceID string) (*RewardResult, error)
}

type RewardResult struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Balance       int64  `json:"balance"`
	Replayed      bool   `json:"replayed"`
}

type rewardUseCase struct {
	orch    *ledger.Orchestrator
	events  EventPublisher
	amounts map[string]int64
	logger  *logger.Logger
}

func NewRewardUseCase(orch *ledger.Orchestrator, events EventPublisher, cfg *config.Config, logger *logger.Logger) RewardUseCase {
	return &rewardUseCase{
		orch:   orch,
		events: events,
		amounts: map[string]int64{
			models.TriggerThreadCreated: cfg.RewardThreadCoins,
			models.TriggerReplyCreated:  cfg.RewardReplyCoins,
			models.TriggerLikeReceived:  cfg.RewardLikeCoins,
		},
		logger: logger,
	}
}

// GrantReward credits the engagement reward for a forum trigger. The
// (trigger, source, user) triple is the idempotency key, so the same forum
// event delivered twice pays out once.
func (uc *rewardUseCase) GrantReward(ctx context.Context, userID, trigger, sourceID string) (*RewardResult, error) {
	amount, ok := uc.amounts[trigger]
	if !ok {
		return nil, ErrUnknownTrigger
	}

	externalRef := fmt.Sprintf("reward:%s:%s:%s", trigger, sourceID, userID)
	txContext := &ledger.Context{Reward: &ledger.RewardContext{
		Trigger:  trigger,
		Channel:  models.ChannelForum,
		SourceID: sourceID,
	}}

	tx, existing, err := uc.orch.Begin(ctx, models.LedgerTypeReward, txContext, userID, externalRef)
	if err != nil {
		return nil, err
	}
	if existing {
		return &RewardResult{TransactionID: tx.ID, Amount: amount, Replayed: true}, nil
	}

	entry, err := uc.orch.PostEntry(ctx, tx, userID, models.DirectionCredit, amount,
		fmt.Sprintf("reward for %s", trigger), ledger.Mirror{
			Trigger:        trigger,
			Channel:        models.ChannelForum,
			Description:    rewardDescription(trigger),
			IdempotencyKey: externalRef,
		})
	if err != nil {
		_ = uc.orch.Fail(ctx, tx, err)
		return nil, err
	}
	if err := uc.orch.Close(ctx, tx); err != nil {
		_ = uc.orch.Fail(ctx, tx, err)
		return nil, err
	}

	if uc.events != nil {
		if err := uc.events.PublishLedgerEvent(queue.RoutingKeyRewardGranted, queue.RewardGrantedEvent{
			UserID:  userID,
			Trigger: trigger,
			Amount:  amount,
			Balance: entry.BalanceAfter,
		}); err != nil {
			uc.logger.Error("Failed to publish reward event: %v", err)
		}
	}

	return &RewardResult{
		TransactionID: tx.ID,
		Amount:        amount,
		Balance:       entry.BalanceAfter,
	}, nil
}

func rewardDescription(trigger string) string {
	switch trigger {
	case models.TriggerThreadCreated:
		return "Reward for creating a thread"
	case models.TriggerReplyCreated:
		return "Reward for posting a reply"
	case models.TriggerLikeReceived:
		return "Reward for receiving a like"
	default:
		return "Engagement reward"
	}
}
