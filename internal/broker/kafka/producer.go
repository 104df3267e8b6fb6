package kafka

import (
	"context"
	"errors"

	"watermark-processor/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// ProducerClient writes to both service topics: tasks from the API,
// results from the worker.
type ProducerClient struct {
	tasks   *wbkafka.Producer
	results *wbkafka.Producer
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		tasks:   wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TasksTopic),
		results: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultTopic),
	}
}

func (p *ProducerClient) SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.tasks.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	return p.results.SendWithRetry(ctx, strategy, key, value)
}

func (p *ProducerClient) Close() error {
	return errors.Join(p.tasks.Close(), p.results.Close())
}
