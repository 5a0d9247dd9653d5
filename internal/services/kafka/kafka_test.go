package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/robotAdapter/internal/config"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
)

func TestDisabledKafkaUsesNoop(t *testing.T) {
	cfg := config.Defaults()
	cfg.Kafka.Enabled = false

	p, err := NewKafkaProducer(cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, NoopProducer{}, p)
	assert.NoError(t, p.Produce(context.Background(), "t", []byte("k"), []byte("v")))
	assert.NoError(t, p.Close())
}

func TestEnabledKafkaBuildsWriter(t *testing.T) {
	cfg := config.Defaults()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Broker = "127.0.0.1:1"

	p, err := NewKafkaProducer(cfg, logging.Discard())
	require.NoError(t, err)

	kp, ok := p.(*KafkaProducer)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:1", kp.writer.Addr.String())
	assert.True(t, kp.writer.AllowAutoTopicCreation)
	assert.NoError(t, p.Close())
}
