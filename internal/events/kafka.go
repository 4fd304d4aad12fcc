package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

const flushTimeoutMs = 5000

// KafkaPublisher writes events as JSON to a single topic.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *zap.Logger
	done     chan struct{}
}

func NewKafkaPublisher(brokers, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"client.id":          "paybridge",
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, err
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log.Named("events.kafka"),
		done:     make(chan struct{}),
	}
	go p.drainDeliveries()
	return p, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic := p.topic
	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil)
}

// Close flushes pending messages and releases the producer.
func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		p.log.Warn("kafka flush timed out", zap.Int("pending", remaining))
	}
	p.producer.Close()
	<-p.done
}

func (p *KafkaPublisher) drainDeliveries() {
	defer close(p.done)
	for ev := range p.producer.Events() {
		msg, ok := ev.(*kafka.Message)
		if !ok {
			continue
		}
		if msg.TopicPartition.Error != nil {
			p.log.Error("kafka delivery failed",
				zap.String("key", string(msg.Key)),
				zap.Error(msg.TopicPartition.Error),
			)
		}
	}
}
