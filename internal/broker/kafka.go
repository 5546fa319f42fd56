package broker

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"fleetstream/internal/constants"
	"fleetstream/internal/logger"
	"fleetstream/pkg/metrics"
)

// KafkaProducer writes to any topic through a single shared writer. Messages
// are keyed by device id, so the Hash balancer keeps one device's stream on
// one partition.
type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(brokers []string, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{
		writer: writer,
		logger: log,
	}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to topic %s: %w", topic, err)
	}

	metrics.KafkaMessagesWrittenTotal.WithLabelValues(topic).Inc()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaReader wraps a consumer-group reader with explicit commit, so callers
// control exactly when offsets advance.
type KafkaReader struct {
	reader *kafka.Reader
}

func NewKafkaReader(brokers []string, groupID, topic string) *KafkaReader {
	return &KafkaReader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Fetch blocks for the next message without committing its offset.
func (r *KafkaReader) Fetch(ctx context.Context) (kafka.Message, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, err
	}
	metrics.KafkaMessagesReadTotal.WithLabelValues(msg.Topic).Inc()
	return msg, nil
}

// Commit acknowledges the given messages, advancing the group offset.
func (r *KafkaReader) Commit(ctx context.Context, msgs ...kafka.Message) error {
	return r.reader.CommitMessages(ctx, msgs...)
}

func (r *KafkaReader) Close() error {
	return r.reader.Close()
}
