package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

// Allocation event types
const (
	AllocationAssigned = "allocation.assigned"
	AllocationReleased = "allocation.released"
	AllocationRemoved  = "allocation.removed"
)

// AllocationEvent is published after an allocation change has committed
type AllocationEvent struct {
	Type         string    `json:"type"`
	AllocationID uint      `json:"allocation_id"`
	StudentID    uint      `json:"student_id"`
	BlockID      uint      `json:"block_id"`
	RoomID       uint      `json:"room_id"`
	BedNumber    *int      `json:"bed_number,omitempty"`
	Status       string    `json:"status"`
	Occupancy    int       `json:"room_occupancy"`
	ActorID      uint      `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers allocation events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event AllocationEvent) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by room id,
// so all events of one room stay ordered on one partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to the given brokers
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(p, topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(p sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event AllocationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode allocation event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(event.RoomID), 10)),
		Value: sarama.ByteEncoder(value),
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, AllocationEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
