package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

type Options struct {
	MaxRetry int
	Timeout  time.Duration
}

type Client struct {
	client  *asynq.Client
	queue   string
	options Options
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string, opts Options) *Client {
	if opts.MaxRetry < 0 {
		opts.MaxRetry = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Minute
	}
	return &Client{
		client:  asynq.NewClient(redisOpt),
		queue:   queueName,
		options: opts,
	}
}

func (c *Client) Queue() string {
	return c.queue
}

func (c *Client) EnqueueTransform(ctx context.Context, payload TransformPayload) (*asynq.TaskInfo, error) {
	task, err := NewTransformTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.options.MaxRetry),
		asynq.Timeout(c.options.Timeout),
		asynq.TaskID(TaskID(payload)),
	)
}

func (c *Client) Close() error {
	return c.client.Close()
}
