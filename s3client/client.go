package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"ltp.dev/ltpgo/logger"
)

var (
	ErrNoSession      = errors.New("could not get S3 session")
	ErrRefreshSession = errors.New("failed to refresh S3 session")
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"LTP_S3_BUCKET" required:"true"`
	Env         string `envconfig:"LTP_ENV" default:"prod"`
	Region      string `envconfig:"LTP_AWS_REGION" required:"true"`
	AwsEndpoint string `envconfig:"LTP_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"LTP_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"LTP_AWS_ACCESS_KEY" default:""`
}

func ReadEnvironment() (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	return config, err
}

// Client uploads and downloads objects of one bucket. A background goroutine
// owns the session and replaces it when a request fails.
type Client struct {
	holder *sessionHolder
	env    EnvironmentConfig
}

type sessionHolder struct {
	curr      *session.Session
	requestCh <-chan *session.Session
	errorCh   chan<- error
	closeCh   chan<- struct{}
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New(env EnvironmentConfig) (*Client, error) {
	client := Client{env: env}
	sessionCh := make(chan *session.Session)
	errorCh := make(chan error)
	closeCh := make(chan struct{}, 1)

	client.holder = &sessionHolder{
		requestCh: sessionCh,
		errorCh:   errorCh,
		closeCh:   closeCh,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	go keepSessionRefreshed(&client, sessionCh, errorCh, closeCh)
	return &client, nil
}

func (client *Client) Upload(ctx context.Context, key string, data []byte) (*s3manager.UploadOutput, error) {
	params := &s3manager.UploadInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	output, err := client.upload(ctx, sess, params)
	if err == nil {
		return output, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	params.Body = bytes.NewReader(data)
	return client.upload(ctx, sess, params)
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	}
	sess, err := client.session()
	if err != nil {
		return nil, err
	}
	res, err := client.download(ctx, sess, params)
	if err == nil {
		return res, nil
	}
	sess, err = client.tryRefreshingSession(err)
	if err != nil {
		return nil, err
	}
	return client.download(ctx, sess, params)
}

func (client *Client) Close() {
	client.holder.closeCh <- struct{}{}
}

func (client *Client) upload(ctx context.Context, sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	ltpLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()
	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	ltpLogger.Debug().Msg("Uploading the file")
	return uploader.UploadWithContext(ctx, params)
}

func (client *Client) download(ctx context.Context, sess *session.Session, params *s3.GetObjectInput) ([]byte, error) {
	ltpLogger := clientLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()
	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	ltpLogger.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, params)
	if err != nil {
		ltpLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	ltpLogger.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func keepSessionRefreshed(client *Client, sessionCh chan<- *session.Session, errorCh <-chan error, closeCh <-chan struct{}) {
	for {
		select {
		case sessionCh <- client.holder.curr:
			continue
		default:
		}
		select {
		case sessionCh <- client.holder.curr:
		case err := <-errorCh:
			clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
			if err = client.acquireNewSession(); err != nil {
				clientLogger.Error().Err(err).Msg("Caught error while refreshing S3 session")
				continue
			}
			clientLogger.Info().Msg("Successfully refreshed session")
		case <-closeCh:
			clientLogger.Info().Msg("Closing client")
			return
		}
	}
}

func (client *Client) tryRefreshingSession(err error) (*session.Session, error) {
	var sess *session.Session
	select {
	case client.holder.errorCh <- err:
		sess = <-client.holder.requestCh
	case sess = <-client.holder.requestCh:
	}
	if sess == nil {
		return nil, ErrRefreshSession
	}
	return sess, nil
}

func (client *Client) session() (*session.Session, error) {
	sess := <-client.holder.requestCh
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (client *Client) createEC2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

// createEnvConfig uses static credentials from the environment. Local
// endpoints such as minio are honored only in the dev environment.
func (client *Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	if client.env.Env == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).
			WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.createEC2Config())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			client.holder.curr = sess
			clientLogger.Info().Msg("S3 session successfully initialized using EC2")
			return nil
		}
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.createEnvConfig()
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		client.holder.curr = nil
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return fmt.Errorf("could not initialize S3 session: %w", err)
	}
	client.holder.curr = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

type s3Logger struct {
	ltpLogger zerolog.Logger
}

func getLogger(ltpLogger zerolog.Logger) *s3Logger {
	return &s3Logger{ltpLogger}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.ltpLogger.Debug().Msg(fmt.Sprint(v...))
}
