package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWelcomeSync registers a freshly signed-in user on the mailing
	// list.
	TaskTypeWelcomeSync = "welcome:sync"
	// TaskTypeContentWarmup repopulates the content list caches.
	TaskTypeContentWarmup = "content:warmup"
)

// WelcomeSyncPayload identifies the user to register on the welcome list.
type WelcomeSyncPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// NewWelcomeSyncTask constructs an Asynq task.
func NewWelcomeSyncTask(payload WelcomeSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeSync, data), nil
}

// NewContentWarmupTask constructs the cache warmup task. It carries no
// payload.
func NewContentWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeContentWarmup, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueWelcomeSync enqueues a welcome-list sync for the user.
func (c *Client) EnqueueWelcomeSync(ctx context.Context, userID, email, name string) error {
	task, err := NewWelcomeSyncTask(WelcomeSyncPayload{UserID: userID, Email: email, Name: name})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
