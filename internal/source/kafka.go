package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"ttnrec/internal/logging"
)

// KafkaConfig holds the Kafka source configuration. Brokers and Topic are
// required; Group is optional (without it the consumer reads standalone).
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
	Logger  *slog.Logger
}

// Kafka receives uplink lines from a Kafka topic, for deployments where the
// bridge publishes through a broker instead of a pipe. Fetched records are
// queued and handed out one per Next call, keeping the pipeline sequential.
type Kafka struct {
	client *kgo.Client
	queue  [][]byte
	logger *slog.Logger
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka source: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka source: topic is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
	}
	if cfg.Group != "" {
		opts = append(opts, kgo.ConsumerGroup(cfg.Group))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	return &Kafka{
		client: client,
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "kafka"),
	}, nil
}

// Next returns the next queued record, polling the broker when the queue is
// empty. Fetch errors surface one at a time as read errors; the ingest loop
// reports them and keeps going.
func (k *Kafka) Next(ctx context.Context) ([]byte, error) {
	for len(k.queue) == 0 {
		fetches := k.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		fetches.EachRecord(func(rec *kgo.Record) {
			k.queue = append(k.queue, rec.Value)
		})

		if errs := fetches.Errors(); len(errs) > 0 && len(k.queue) == 0 {
			e := errs[0]
			return nil, fmt.Errorf("kafka fetch (topic %s partition %d): %w", e.Topic, e.Partition, e.Err)
		}
	}

	line := k.queue[0]
	k.queue = k.queue[1:]
	return line, nil
}

func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}
