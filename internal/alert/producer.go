package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ms-turnos/internal/config"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/models"
)

// Producer streams queue alerts to Kafka: one message per first-time ticket
// expiry and one per closed day.
type Producer struct {
	writer *kafka.Writer
	topics config.TopicConfig
	logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{
		writer: writer,
		topics: topics,
		logger: log,
	}
}

func (p *Producer) TicketExpired(event models.TicketExpiredEvent) error {
	return p.publish(p.topics.TicketExpired, strconv.Itoa(event.Number), event)
}

func (p *Producer) DayFinished(event models.DayFinishedEvent) error {
	return p.publish(p.topics.DayFinished, event.ID, event)
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	if p.logger != nil {
		p.logger.Info("KAFKA", fmt.Sprintf("Published to %s: %s", topic, string(value)))
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop satisfies the alert contract for deployments without Kafka; the
// expiry is still recorded in the log.
type Noop struct {
	Logger *logger.Logger
}

func (n Noop) TicketExpired(event models.TicketExpiredEvent) error {
	if n.Logger != nil {
		n.Logger.Info("ALERT", fmt.Sprintf("Ticket %d (%s) expired", event.Number, event.Name))
	}
	return nil
}

func (n Noop) DayFinished(event models.DayFinishedEvent) error {
	if n.Logger != nil {
		n.Logger.Info("ALERT", fmt.Sprintf("Day finished: %d tickets, revenue %d", event.TicketCount, event.Revenue))
	}
	return nil
}
