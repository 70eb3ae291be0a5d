package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/models"
)

const (
	EventHoldingAdded   = "HOLDING_ADDED"
	EventHoldingUpdated = "HOLDING_UPDATED"
	EventHoldingRemoved = "HOLDING_REMOVED"

	eventSource    = "portfolio-service"
	publishTimeout = 5 * time.Second
)

// HoldingEvent is published after every committed ledger write
type HoldingEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Timestamp string         `json:"timestamp"`
	UserID    int64          `json:"user_id"`
	Data      models.Holding `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes holding lifecycle events keyed by user, so one user's
// events stay ordered on one partition.
type Producer struct {
	writer messageWriter
	now    func() time.Time
}

// NewProducer creates a producer for topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	log.WithField("topic", topic).Info("Kafka producer configured")

	return &Producer{writer: writer, now: time.Now}
}

func (p *Producer) HoldingAdded(ctx context.Context, h *models.Holding) error {
	return p.publish(ctx, EventHoldingAdded, h)
}

func (p *Producer) HoldingUpdated(ctx context.Context, h *models.Holding) error {
	return p.publish(ctx, EventHoldingUpdated, h)
}

func (p *Producer) HoldingRemoved(ctx context.Context, h *models.Holding) error {
	return p.publish(ctx, EventHoldingRemoved, h)
}

func (p *Producer) publish(ctx context.Context, eventType string, h *models.Holding) error {
	event := HoldingEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Source:    eventSource,
		Timestamp: p.now().UTC().Format(time.RFC3339),
		UserID:    h.UserID,
		Data:      *h,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	// the write outlives a cancelled request, but not forever
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(h.UserID, 10)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	log.WithFields(log.Fields{
		"event_type": eventType,
		"holding_id": h.ID,
		"user_id":    h.UserID,
	}).Debug("published holding event")
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
