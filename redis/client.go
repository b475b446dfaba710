package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("redis: key not found")

type Client struct {
	client         redis.UniversalClient
	locker         *redislock.Client
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"LTP_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"LTP_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"LTP_REDIS_PORT" default:"6379"`
	HASentinelPort          string  `envconfig:"LTP_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"LTP_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"LTP_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"LTP_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"LTP_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"LTP_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func ReadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewClient(cfg *Config, db DB) *Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateFailoverClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return &Client{
		client:         client,
		locker:         redislock.New(client),
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}
}

func CreateFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// Get returns the raw value stored under key or ErrNotFound.
func (client *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := client.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (client *Client) Set(ctx context.Context, key string, value []byte) error {
	return client.client.Set(ctx, key, value, 0).Err()
}

// Lock obtains "lock:<key>", retrying linearly for up to 20 seconds.
func (client *Client) Lock(ctx context.Context, key string) (ReleaseLock, error) {
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lock, err := client.locker.Obtain(ctx, "lock:"+key, client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}
