package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ltp.dev/ltpgo/api"
	"ltp.dev/ltpgo/logger"
	"ltp.dev/ltpgo/ltp"
	"ltp.dev/ltpgo/pipeline"
	"ltp.dev/ltpgo/worker"
)

type ServeConfig struct {
	Model         string `envconfig:"LTP_MODEL" default:"LTP/legacy"`
	ModelHome     string `envconfig:"LTP_MODEL_HOME" default:""`
	LexiconPath   string `envconfig:"LTP_LEXICON_PATH" default:""`
	Workers       int    `envconfig:"LTP_WORKERS" default:"0"`
	CacheSize     int    `envconfig:"LTP_CACHE_SIZE" default:"1024"`
	BatchSize     int    `envconfig:"LTP_BATCH_SIZE" default:"16"`
	RestAPIActive bool   `envconfig:"LTP_REST_API_ACTIVE" default:"true"`
	RestAPIPort   string `envconfig:"LTP_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"LTP_WORKER_ACTIVE" default:"false"`
}

const workerRestartDelay = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and/or the queue worker",
		Long: `serve loads the model named by $LTP_MODEL and starts the REST API
($LTP_REST_API_ACTIVE) and the RabbitMQ worker ($LTP_WORKER_ACTIVE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var config ServeConfig
			if err := envconfig.Process("", &config); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config)
		},
	}
}

func serve(ctx context.Context, config ServeConfig) error {
	ltpLogger := logger.NewLogger("Main")
	if !config.RestAPIActive && !config.WorkerActive {
		return errors.New("neither the REST API nor the worker is active")
	}

	model := modelFlags{
		name:      config.Model,
		home:      config.ModelHome,
		lexicon:   config.LexiconPath,
		workers:   config.Workers,
		cacheSize: config.CacheSize,
	}
	l, err := model.open(ctx, logger.NewLogger("LTP"))
	if err != nil {
		ltpLogger.Err(err).Str("model", config.Model).Msg("Failed to load model")
		return err
	}
	defer l.Close()

	ppln, err := pipeline.NewDefault(pipeline.Params{Analyzer: l, BatchSize: config.BatchSize})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if config.RestAPIActive {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%s", config.RestAPIPort),
			Handler: api.NewHandler(l, ppln).Routes(),
		}
		g.Go(func() error {
			ltpLogger.Info().Msgf("REST API on %s", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if config.WorkerActive {
		g.Go(func() error {
			return runWorker(gctx, ppln)
		})
	}
	ltpLogger.Info().Str("version", ltp.Version).Msg("Service started")
	return g.Wait()
}

// runWorker restarts the worker until ctx is done.
func runWorker(ctx context.Context, ppln pipeline.Pipeline) error {
	ltpLogger := logger.NewLogger("Main")
	ltpLogger.Info().Msg("Start LTP Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			ltpLogger.Err(err).Msg("Could not initialize RMQ worker")
			return err
		}
		err = rmqWorker.StartWorker(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			ltpLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(workerRestartDelay):
		}
	}
}
