// Package notify publishes welcome events for newly imported members.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logrus.Entry
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, log *logrus.Entry) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

// NewSyncProducer waits for every in-sync replica before acknowledging.
func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	return producer, nil
}

// PublishWelcome keys the event by member id so retries for one member stay
// on one partition.
func (p *KafkaPublisher) PublishWelcome(ctx context.Context, msg domain.WelcomeMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal welcome message: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.MemberID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("notification_id"), Value: []byte(msg.NotificationID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write welcome message to kafka: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"member_id": msg.MemberID,
		"partition": partition,
		"offset":    offset,
	}).Debug("welcome message published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
