//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradematch/internal/platform/kafka"
	"tradematch/pkg/testutil/containers"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []*kafka.Message
}

func (h *recordingHandler) Handle(_ context.Context, msg *kafka.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *recordingHandler) snapshot() []*kafka.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*kafka.Message(nil), h.messages...)
}

// TestProduceConsumeRoundTrip exercises the producer and consumer against a
// real broker, including topic bootstrap on a fresh cluster.
func TestProduceConsumeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	brokers := containers.GetManager().GetRedpanda(t).Brokers
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	topic := "roundtrip." + uuid.NewString()

	producer, err := kafka.NewProducer(ctx, brokers, logger, topic)
	require.NoError(t, err)
	defer producer.Close()

	handler := &recordingHandler{}
	consumer, err := kafka.NewConsumer(brokers, "roundtrip-"+uuid.NewString(), []string{topic}, handler, logger)
	require.NoError(t, err)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(consumerCtx) }()

	delivery := make(chan error, 1)
	producer.Produce(ctx, topic, []byte("k1"), []byte(`{"hello":"world"}`), func(err error) {
		delivery <- err
	})
	require.NoError(t, producer.Flush(ctx))

	select {
	case err := <-delivery:
		require.NoError(t, err, "broker acked the record")
	case <-ctx.Done():
		t.Fatal("timed out waiting for delivery callback")
	}

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == 1
	}, 30*time.Second, 100*time.Millisecond, "consumer received the record")

	got := handler.snapshot()[0]
	assert.Equal(t, topic, got.Topic)
	assert.Equal(t, []byte("k1"), got.Key)
	assert.JSONEq(t, `{"hello":"world"}`, string(got.Value))

	stopConsumer()
	consumer.Close()
	select {
	case err := <-done:
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
