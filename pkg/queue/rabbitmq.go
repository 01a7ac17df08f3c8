package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yoforex/pkg/config"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
	"yoforex/pkg/reconcile"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	LedgerExchange   = "ledger_events"
	LedgerEventQueue = "ledger_event_queue"

	RoutingKeyPurchaseCompleted   = "purchase.completed"
	RoutingKeyRewardGranted       = "reward.granted"
	RoutingKeyReconciliationDrift = "reconciliation.drift"
)

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Topic exchange so consumers can bind to a single event family
	// (purchase.*, reconciliation.*) or to everything with #.
	err = channel.ExchangeDeclare(
		LedgerExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Durable catch-all queue declared on the publish side, so events
	// emitted before any downstream consumer attaches are retained.
	_, err = channel.QueueDeclare(
		LedgerEventQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		LedgerEventQueue, // queue name
		"#",              // routing key
		LedgerExchange,   // exchange
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishLedgerEvent publishes a persistent JSON event to the ledger exchange.
// Events are fire-and-forget from the ledger's point of view: a publish
// failure is logged and surfaced but never rolls back the financial write.
func (c *Client) PublishLedgerEvent(routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		LedgerExchange, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish to exchange=%s, routing_key=%s: %v", LedgerExchange, routingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published event routing_key=%s: %s", routingKey, string(body))
	return nil
}

// PurchaseCompletedEvent is emitted after a purchase transaction closes.
type PurchaseCompletedEvent struct {
	PurchaseID   string `json:"purchase_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ContentID    string `json:"content_id"`
	PriceCoins   int64  `json:"price_coins"`
	SellerCredit int64  `json:"seller_credit"`
	PlatformFee  int64  `json:"platform_fee"`
	BotFunded    bool   `json:"bot_funded"`
}

// RewardGrantedEvent is emitted after an engagement reward closes.
type RewardGrantedEvent struct {
	UserID  string `json:"user_id"`
	Trigger string `json:"trigger"`
	Amount  int64  `json:"amount"`
	Balance int64  `json:"balance"`
}

// DriftAlertEvent carries the summary of a reconciliation run that found
// drift. The full per-wallet report stays in the run record.
type DriftAlertEvent struct {
	RunID          string `json:"run_id"`
	WalletsChecked int64  `json:"wallets_checked"`
	DriftCount     int64  `json:"drift_count"`
	MaxDelta       int64  `json:"max_delta"`
}

// PublishDrift implements the reconciler's alert sink.
func (c *Client) PublishDrift(ctx context.Context, run *models.ReconciliationRun, drifts []reconcile.Drift) error {
	return c.PublishLedgerEvent(RoutingKeyReconciliationDrift, DriftAlertEvent{
		RunID:          run.ID,
		WalletsChecked: run.WalletsChecked,
		DriftCount:     run.DriftCount,
		MaxDelta:       run.MaxDelta,
	})
}
