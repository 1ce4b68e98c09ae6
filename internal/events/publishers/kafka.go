package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"custody/internal/events/models"
)

// Producer is the subset of *kgo.Client the Kafka publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Kafka writes each envelope as one record keyed by Envelope.Key, so all
// notifications for an identity or an item land on one partition in order.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, batch []*models.Envelope) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, env := range batch {
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %s: %w", env.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(env.Key),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(env.Type)},
				{Key: "event_id", Value: []byte(env.ID.String())},
			},
		})
	}
	if err := k.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", k.topic, err)
	}
	return nil
}
