package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ateliedalu/backend-atacado/internal/config"
	"github.com/ateliedalu/backend-atacado/internal/notify"
	"github.com/ateliedalu/backend-atacado/internal/obs"
	"github.com/ateliedalu/backend-atacado/internal/resilience"
)

// The worker process drains the CRM delivery queue. It shares no HTTP surface
// with the API; one binary per concern keeps deploys independent.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "atacado"), nil)

	if !cfg.CRMWebhookEnabled {
		logger.Info().Msg("crm webhook delivery disabled, nothing to do")
		return
	}

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	breaker := resilience.
		NewBreaker(cfg.CircuitWebhookMinReq, cfg.CircuitWebhookFailureRate, cfg.CircuitWebhookOpenFor).
		WithTarget("crm-webhook").
		WithLogger(logger)

	webhook := &notify.Webhook{
		URL:     cfg.CRMWebhookURL,
		Secret:  cfg.CRMWebhookSecret,
		Client:  notify.HTTPClient(cfg.CRMWebhookTimeout, false),
		Breaker: breaker,
		Log:     logger,
	}

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 5),
		Queues:      map[string]int{notify.QueueCRM: 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return resilience.Backoff(5*time.Second, n, 0.2)
		},
		Logger: asynqLogger{logger: logger},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notify.TaskTypeCRMWebhook, webhook.HandleTask)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// asynqLogger adapts zerolog to the task server's logging interface.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
