package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expense-tracker/api/logger"
	"expense-tracker/api/models"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

var (
	MailTopic string = "password_reset_mail"
	GroupID   string = "password-reset-mailer"
)

// Config carries the Confluent Cloud connection settings.
type Config struct {
	BootstrapServers string
	APIKey           string
	APISecret        string
}

func (c Config) configMap() *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
	}
	if c.APIKey != "" {
		_ = cm.SetKey("sasl.username", c.APIKey)
		_ = cm.SetKey("sasl.password", c.APISecret)
		_ = cm.SetKey("security.protocol", "SASL_SSL")
		_ = cm.SetKey("sasl.mechanisms", "PLAIN")
	}
	return cm
}

// MailQueue hands reset mails to Kafka instead of sending them inline.
type MailQueue struct {
	producer *kafka.Producer
	topic    string
}

func NewMailQueue(cfg Config) (*MailQueue, error) {
	producer, err := kafka.NewProducer(cfg.configMap())
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return nil, err
	}

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", cfg.BootstrapServers))
	return &MailQueue{producer: producer, topic: MailTopic}, nil
}

// SendResetLink enqueues the mail and waits for the broker to acknowledge it.
func (q *MailQueue) SendResetLink(ctx context.Context, to, link string) error {
	payload, err := json.Marshal(models.MailJob{Email: to, Link: link})
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}

	delivery := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(to),
		Value:          payload,
	}
	if err := q.producer.Produce(msg, delivery); err != nil {
		logger.Get().Error("failed to produce message",
			zap.String("topic", q.topic),
			zap.Error(err))
		return err
	}

	if err := awaitDelivery(ctx, delivery); err != nil {
		return err
	}

	logger.Get().Debug("message produced successfully", zap.String("topic", q.topic))
	return nil
}

// awaitDelivery waits for the producer's delivery report.
func awaitDelivery(ctx context.Context, delivery <-chan kafka.Event) error {
	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MailQueue) Close() {
	q.producer.Flush(5000)
	q.producer.Close()
}

// Submitter is the part of the worker pool the consumer feeds.
type Submitter interface {
	SubmitWait(ctx context.Context, job []byte, partition int32) error
	Workers() int
}

// committer is the part of *kafka.Consumer forward needs.
type committer interface {
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
}

// StartMailConsumer reads queued mails until ctx is done and hands them to
// the pool. Messages keep their Kafka partition affinity. Offsets are
// committed only once the pool has accepted the job.
func StartMailConsumer(ctx context.Context, cfg Config, pool Submitter) error {
	cm := cfg.configMap()
	_ = cm.SetKey("group.id", GroupID)
	_ = cm.SetKey("auto.offset.reset", "earliest")
	_ = cm.SetKey("session.timeout.ms", "45000")
	_ = cm.SetKey("enable.auto.commit", false)

	consumer, err := kafka.NewConsumer(cm)
	if err != nil {
		logger.Get().Error("failed to create consumer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return err
	}

	if err := consumer.Subscribe(MailTopic, nil); err != nil {
		logger.Get().Error("failed to subscribe to topic",
			zap.String("topic", MailTopic),
			zap.Error(err))
		consumer.Close()
		return err
	}

	logger.Get().Info("Kafka consumer started successfully",
		zap.String("topic", MailTopic),
		zap.String("group_id", GroupID))

	go func() {
		defer consumer.Close()
		for {
			select {
			case <-ctx.Done():
				logger.Get().Info("Kafka consumer stopping")
				return
			default:
			}

			msg, err := consumer.ReadMessage(500 * time.Millisecond)
			if err != nil {
				if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				logger.Get().Error("consumer error",
					zap.String("topic", MailTopic),
					zap.Error(err))
				continue
			}

			if err := forward(ctx, pool, consumer, msg); err != nil {
				logger.Get().Warn("Kafka consumer stopping, message left uncommitted",
					zap.String("topic", MailTopic),
					zap.Int32("partition", msg.TopicPartition.Partition),
					zap.Error(err))
				return
			}
		}
	}()
	return nil
}

// forward hands msg to the pool, waiting for buffer space, and commits its
// offset once accepted. An error means the consumer must stop so the
// message is redelivered.
func forward(ctx context.Context, pool Submitter, c committer, msg *kafka.Message) error {
	partition := PartitionFor(msg.TopicPartition.Partition, pool.Workers())
	if err := pool.SubmitWait(ctx, msg.Value, partition); err != nil {
		return fmt.Errorf("failed to queue mail job: %w", err)
	}
	if _, err := c.CommitMessage(msg); err != nil {
		// The job is queued; a failed commit only risks a duplicate mail.
		logger.Get().Error("failed to commit offset",
			zap.String("topic", MailTopic),
			zap.Int32("partition", msg.TopicPartition.Partition),
			zap.Error(err))
	}
	return nil
}

// PartitionFor maps a Kafka partition onto one of n workers.
func PartitionFor(partition int32, n int) int32 {
	if n <= 0 || partition < 0 {
		return 0
	}
	return partition % int32(n)
}
