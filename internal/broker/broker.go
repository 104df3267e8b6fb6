package broker

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

// Producer publishes batch tasks (API side) and batch results (worker side).
type Producer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	SendResult(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

// Consumer feeds the worker with task messages.
type Consumer interface {
	StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg kafka.Message) error
	Close() error
}
