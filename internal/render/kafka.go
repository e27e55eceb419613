package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes each new segment to a topic, keyed by the sample
// timestamp of its second fix.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter builds a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher publishes through w.
func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Render(ctx context.Context, snap trajectory.Snapshot) error {
	seg, err := latestSegment(snap)
	if err != nil {
		return err
	}
	value, err := json.Marshal(seg)
	if err != nil {
		return fmt.Errorf("kafka: marshal segment: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(seg.To.Timestamp, 10)),
		Value: value,
		Time:  seg.ComputedAt,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write segment: %w", err)
	}
	return nil
}
