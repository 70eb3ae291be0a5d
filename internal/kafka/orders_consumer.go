package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/models"
)

const (
	EventPaperBuy       = "PAPER_BUY"
	EventPaperSetShares = "PAPER_SET_SHARES"
	EventPaperClose     = "PAPER_CLOSE"
)

// Ledger is the subset of the portfolio ledger driven by paper orders
type Ledger interface {
	AddHolding(ctx context.Context, userID int64, symbol string, shares int64, purchasePrice decimal.Decimal) (*models.ValuedHolding, error)
	UpdateShares(ctx context.Context, userID, holdingID, shares int64) (*models.ValuedHolding, error)
	RemoveHolding(ctx context.Context, userID, holdingID int64) error
}

// OrderEvent is a simulated order from an upstream strategy or bot
type OrderEvent struct {
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp string    `json:"timestamp"`
	Data      OrderData `json:"data"`
}

// OrderData holds the fields for the different order types
type OrderData struct {
	UserID int64 `json:"user_id"`

	// For PAPER_BUY
	Symbol string          `json:"symbol,omitempty"`
	Price  decimal.Decimal `json:"price"`

	// For PAPER_BUY and PAPER_SET_SHARES
	Shares int64 `json:"shares,omitempty"`

	// For PAPER_SET_SHARES and PAPER_CLOSE
	HoldingID int64 `json:"holding_id,omitempty"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrdersConsumer applies paper orders from Kafka to the ledger
type OrdersConsumer struct {
	reader messageReader
	topic  string
	ledger Ledger
}

// NewOrdersConsumer creates a new Kafka consumer for paper order events
func NewOrdersConsumer(brokers []string, topic, groupID string, ledger Ledger) *OrdersConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID + "-orders",
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset, // Only act on orders placed while running
		CommitInterval: time.Second,
	})

	return &OrdersConsumer{
		reader: reader,
		topic:  topic,
		ledger: ledger,
	}
}

// Start consumes until ctx is cancelled. Bad messages are logged and skipped.
func (c *OrdersConsumer) Start(ctx context.Context) error {
	log.WithField("topic", c.topic).Info("Starting paper orders consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info("Paper orders consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				log.WithError(err).Error("Error reading order message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).WithError(err).Error("Error processing order message")
			}
		}
	}
}

func (c *OrdersConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}

	d := event.Data
	logger := log.WithFields(log.Fields{
		"event_type": event.EventType,
		"source":     event.Source,
		"user_id":    d.UserID,
	})

	switch event.EventType {
	case EventPaperBuy:
		vh, err := c.ledger.AddHolding(ctx, d.UserID, d.Symbol, d.Shares, d.Price)
		if err != nil {
			return fmt.Errorf("paper buy %s: %w", d.Symbol, err)
		}
		logger.WithField("holding_id", vh.ID).Infof("Paper buy: %d %s @ %s", vh.Shares, vh.Symbol, vh.PurchasePrice)

	case EventPaperSetShares:
		vh, err := c.ledger.UpdateShares(ctx, d.UserID, d.HoldingID, d.Shares)
		if err != nil {
			return fmt.Errorf("paper set shares on holding %d: %w", d.HoldingID, err)
		}
		logger.WithField("holding_id", vh.ID).Infof("Paper position resized to %d shares", vh.Shares)

	case EventPaperClose:
		if err := c.ledger.RemoveHolding(ctx, d.UserID, d.HoldingID); err != nil {
			return fmt.Errorf("paper close of holding %d: %w", d.HoldingID, err)
		}
		logger.WithField("holding_id", d.HoldingID).Info("Paper position closed")

	default:
		logger.Debug("Ignoring event type")
	}

	return nil
}

// Close closes the Kafka consumer
func (c *OrdersConsumer) Close() error {
	return c.reader.Close()
}
