package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
	"github.com/mohammadpnp/member-import/internal/infrastructure/notify"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, config)
}

func TestKafkaPublisherSendsJSON(t *testing.T) {
	t.Parallel()

	producer := newMockProducer(t)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg domain.WelcomeMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.MemberID != "m-1" || msg.Email != "alice@example.com" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	publisher := notify.NewKafkaPublisher(producer, "club.member.welcome", quietLogger())
	err := publisher.PublishWelcome(context.Background(), domain.WelcomeMessage{
		NotificationID: "n-1",
		MemberID:       "m-1",
		ClubID:         "c-1",
		Email:          "alice@example.com",
		Name:           "Alice",
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherWrapsBrokerErrors(t *testing.T) {
	t.Parallel()

	producer := newMockProducer(t)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := notify.NewKafkaPublisher(producer, "club.member.welcome", quietLogger())
	err := publisher.PublishWelcome(context.Background(), domain.WelcomeMessage{MemberID: "m-1"})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	producer := newMockProducer(t)
	publisher := notify.NewKafkaPublisher(producer, "club.member.welcome", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishWelcome(ctx, domain.WelcomeMessage{MemberID: "m-1"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, publisher.Close())
}
