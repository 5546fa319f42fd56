package persist

import (
	"context"

	"github.com/segmentio/kafka-go"

	"fleetstream/internal/broker"
)

// Record is one message pulled from an output channel, carrying whatever the
// underlying transport needs to acknowledge it later.
type Record struct {
	Key   []byte
	Value []byte

	kafkaMsg kafka.Message
}

// Source feeds a batch consumer. Fetch blocks for the next record; Commit
// acknowledges records after their batch has been written.
type Source interface {
	Fetch(ctx context.Context) (Record, error)
	Commit(ctx context.Context, records []Record) error
	Close() error
}

// KafkaSource adapts a consumer-group reader to the Source interface.
type KafkaSource struct {
	reader *broker.KafkaReader
}

func NewKafkaSource(reader *broker.KafkaReader) *KafkaSource {
	return &KafkaSource{reader: reader}
}

func (s *KafkaSource) Fetch(ctx context.Context) (Record, error) {
	msg, err := s.reader.Fetch(ctx)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Key:      msg.Key,
		Value:    msg.Value,
		kafkaMsg: msg,
	}, nil
}

func (s *KafkaSource) Commit(ctx context.Context, records []Record) error {
	msgs := make([]kafka.Message, len(records))
	for i, r := range records {
		msgs[i] = r.kafkaMsg
	}
	return s.reader.Commit(ctx, msgs...)
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
