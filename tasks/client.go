package tasks

import (
	"context"
	"fmt"

	"ltp.dev/ltpgo/redis"
)

// Store is the key-value backend of task documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Lock(ctx context.Context, key string) (redis.ReleaseLock, error)
	Close() error
}

type Client struct {
	Documents DocumentTasks
	Jobs      JobTasks
}

// NewClient connects one Redis client per task database.
func NewClient(cfg *redis.Config) Client {
	return NewClientWithStores(
		redis.NewClient(cfg, DocumentsDB),
		redis.NewClient(cfg, JobsDB),
	)
}

func NewClientWithStores(documents, jobs Store) Client {
	return Client{
		Documents: DocumentTasks{store: documents},
		Jobs:      JobTasks{store: jobs},
	}
}

func (client *Client) Close() {
	_ = client.Documents.store.Close()
	_ = client.Jobs.store.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
