package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"ltp.dev/ltpgo/logger"
)

type Config struct {
	Host                    string `envconfig:"LTP_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"LTP_RMQ_PORT" default:"5672"`
	Username                string `envconfig:"LTP_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"LTP_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"LTP_RMQ_EXCHANGE" default:"ltp-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"LTP_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaskQueue               string `envconfig:"LTP_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"LTP_SEQUENCER_TASK_QUEUE" required:"true"`
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// Client consumes the task queue on one connection and publishes to the
// sequencer queue on another.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	ltpLogger      zerolog.Logger
}

func NewClient(config Config) (*Client, error) {
	ltpLogger := logger.NewLogger("RMQ client")

	url := config.URL()
	respConn, respChannel, err := setup(url)
	if err != nil {
		ltpLogger.Err(err).Str("host", config.Host).Msg("Failed to open response connection")
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		ltpLogger.Err(err).Str("host", config.Host).Msg("Failed to open request connection")
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	client := &Client{
		config:      config,
		reqConn:     reqConn,
		respConn:    respConn,
		respChannel: respChannel,
		ltpLogger:   ltpLogger,
	}

	q, err := reqChannel.QueueDeclarePassive(
		config.TaskQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("declare %s: %w", config.TaskQueue, err)
	}
	if err := reqChannel.QueueBind(config.TaskQueue, config.TaskQueue, config.Exchange, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bind %s: %w", config.TaskQueue, err)
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	client.Deliveries = deliveries
	client.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error, 1))
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error, 1))

	ltpLogger.Info().
		Str("queue", config.TaskQueue).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming task queue")
	return client, nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func (config Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
