package kafka

import (
	"context"
	"time"

	"github.com/iwtcode/robotAdapter/internal/config"
	"github.com/iwtcode/robotAdapter/internal/interfaces"
	"github.com/iwtcode/robotAdapter/internal/middleware/logging"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer создает новый экземпляр продюсера Kafka.
// При выключенном экспорте возвращает продюсер без отправки.
func NewKafkaProducer(cfg *config.AppConfig, logger *logging.Logger) (interfaces.KafkaService, error) {
	if !cfg.Kafka.Enabled {
		logger.Info("Kafka export disabled, using no-op producer")
		return NoopProducer{}, nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Broker),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	logger.Info("Kafka producer created", "broker", cfg.Kafka.Broker, "topic", cfg.Kafka.Topic)
	return &KafkaProducer{writer: writer}, nil
}

// Produce отправляет сообщение в топик Kafka. Ключ сообщения - идентификатор сессии.
func (p *KafkaProducer) Produce(ctx context.Context, topic string, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   key,
			Value: value,
		},
	)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopProducer отбрасывает сообщения.
type NoopProducer struct{}

func (NoopProducer) Produce(context.Context, string, []byte, []byte) error { return nil }
func (NoopProducer) Close() error                                          { return nil }
