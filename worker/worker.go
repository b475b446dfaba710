package worker

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/logger"
	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/redis"
	"ltp.dev/ltpgo/rmq"
	"ltp.dev/ltpgo/s3client"
	"ltp.dev/ltpgo/tasks"
)

type Config struct {
	TaskMaxRetries int `envconfig:"LTP_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	ltpLogger *zerolog.Logger
	ppln      pipeline.Pipeline

	redisConfig *redis.Config
	rmqConfig   rmq.Config
	s3Config    s3client.EnvironmentConfig
}

// New reads the worker, Redis, RabbitMQ and S3 settings from the environment
// and connects all three clients.
func New(ppln pipeline.Pipeline) (*Worker, error) {
	ltpLogger := logger.NewLogger("Worker")

	worker := Worker{
		ltpLogger: &ltpLogger,
		ppln:      ppln,
	}
	var err error
	if err = envconfig.Process("", &worker.config); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}
	if worker.redisConfig, err = redis.ReadConfig(); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not read Redis config")
		return nil, err
	}
	if worker.rmqConfig, err = rmq.ReadConfig(); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not read RMQ config")
		return nil, err
	}
	if worker.s3Config, err = s3client.ReadEnvironment(); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not read S3 config")
		return nil, err
	}

	if err := worker.refreshRMQClient(); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		ltpLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.rmq.close()
		return nil, err
	}
	worker.refreshRedisClients()
	return &worker, nil
}

// StartWorker consumes deliveries until ctx is done or the RMQ client cannot be refreshed.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	for {
		select {
		case <-ctx.Done():
			worker.ltpLogger.Info().Msg("Stopping worker")
			return nil
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				go worker.processMessage(ctx, delivery)
				continue
			}
			worker.ltpLogger.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"rmq deliveries channel has been closed and refresh returned error: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.ltpLogger.Err(rmqErr).Msg("Response connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"response connection received error and refresh failed with: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.ltpLogger.Err(rmqErr).Msg("Request connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"request connection received error and refresh failed with: %w",
					err,
				)
			}
		}
	}
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}

func (worker *Worker) refreshRedisClients() {
	worker.ltpLogger.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient := tasks.NewClient(worker.redisConfig)
	worker.redis = &redisClientWrapper{&tasksClient}
	worker.ltpLogger.Info().Msg("Refreshed Redis client")
}

func (worker *Worker) refreshRMQClient() error {
	worker.ltpLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient(worker.rmqConfig)
	if err != nil {
		worker.ltpLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.ltpLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshS3Client() error {
	worker.ltpLogger.Info().Msg("Refreshing S3 client")
	if oldClient := worker.s3; oldClient != nil {
		defer oldClient.close()
	}
	s3Client, err := s3client.New(worker.s3Config)
	if err != nil {
		worker.ltpLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.s3 = &s3ClientWrapper{s3Client}
	worker.ltpLogger.Info().Msg("Refreshed S3 client")
	return nil
}
