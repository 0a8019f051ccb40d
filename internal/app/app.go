// Package app wires configuration into the session store, API gateway,
// resource clients and debug tooling used by the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/salesonboard/internal/auth"
	"github.com/utafrali/salesonboard/internal/companies"
	"github.com/utafrali/salesonboard/internal/config"
	"github.com/utafrali/salesonboard/internal/event"
	"github.com/utafrali/salesonboard/internal/netlog"
	"github.com/utafrali/salesonboard/internal/onboarding"
	"github.com/utafrali/salesonboard/internal/session"
	filestore "github.com/utafrali/salesonboard/internal/session/file"
	"github.com/utafrali/salesonboard/internal/session/memory"
	pgstore "github.com/utafrali/salesonboard/internal/session/postgres"
	redisstore "github.com/utafrali/salesonboard/internal/session/redis"
	"github.com/utafrali/salesonboard/internal/upload"
	"github.com/utafrali/salesonboard/pkg/database"
	"github.com/utafrali/salesonboard/pkg/health"
	"github.com/utafrali/salesonboard/pkg/httpclient"
	pkgkafka "github.com/utafrali/salesonboard/pkg/kafka"
	"github.com/utafrali/salesonboard/pkg/tracing"
)

// ServiceName identifies the CLI in logs, traces and the User-Agent header.
const ServiceName = "onboard-cli"

// Version is overridden at build time.
var Version = "dev"

// App holds every wired component. Close releases them.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Sessions   *session.Repository
	API        *httpclient.Client
	Auth       *auth.Service
	Companies  *companies.Client
	Uploads    *upload.Client
	Onboarding *onboarding.Workflow
	Events     *event.Producer
	NetLog     *netlog.Log
	Health     *health.Handler

	closers []func(context.Context) error
}

// Option adjusts wiring, mainly for tests.
type Option func(*options)

type options struct {
	kv session.KV
}

// WithSessionStore overrides the configured session backend.
func WithSessionStore(kv session.KV) Option {
	return func(o *options) { o.kv = kv }
}

// New builds the application. On error every resource opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, NetLog: netlog.New(cfg.NetlogCapacity), Health: health.NewHandler()}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	kv := o.kv
	if kv == nil {
		if kv, err = a.openSessionStore(ctx); err != nil {
			return nil, err
		}
	}
	a.Sessions = session.NewRepository(kv)

	a.API = httpclient.New(httpclient.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		UserAgent: ServiceName + "/" + Version,
		RateLimit: cfg.RateLimitRPS,
		RateBurst: cfg.RateLimitBurst,
		MaxBody:   cfg.APIMaxBody,
	}, a.gatewayOptions()...)

	a.Events = event.NewProducer(nil, logger)
	if cfg.EventsEnabled() {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
		a.Events = event.NewProducer(producer, logger)
		a.Health.RegisterNonCritical("events", producer.Ping)
	}

	a.Auth = auth.NewService(a.API, a.Sessions, cfg.LoginRole, logger)
	a.Companies = companies.NewClient(a.API, a.Events, logger)
	a.Uploads = upload.NewClient(a.API, a.Sessions, a.Events, logger, upload.WithConcurrency(cfg.UploadParallel))
	a.Onboarding = onboarding.NewWorkflow(a.Companies, a.Uploads, a.Auth, logger)

	a.Health.RegisterCritical("session", a.Sessions.Ping)
	a.Health.RegisterCritical("backend", a.API.Ping)
	return a, nil
}

func (a *App) gatewayOptions() []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithTokenSource(a.Sessions),
		httpclient.WithLogger(a.Logger),
		httpclient.WithTransportMiddleware(a.NetLog.Middleware()),
	}
	if a.Config.BreakerEnabled {
		opts = append(opts, httpclient.WithCircuitBreaker(httpclient.DefaultCircuitBreakerConfig("onboard-api")))
	}
	return opts
}

func (a *App) openSessionStore(ctx context.Context) (session.KV, error) {
	cfg := a.Config
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return redisstore.New(client, cfg.SessionProfile, cfg.SessionTTL), nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, database.DefaultPostgresConfig(cfg.PostgresDSN), a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		if err := pgstore.Migrate(ctx, pool, a.Logger); err != nil {
			return nil, fmt.Errorf("migrate session store: %w", err)
		}
		return pgstore.New(pool, cfg.SessionProfile), nil

	default:
		path := cfg.SessionFile
		if path == "" {
			var err error
			if path, err = filestore.DefaultPath(cfg.SessionProfile); err != nil {
				return nil, fmt.Errorf("resolve session file: %w", err)
			}
		}
		return filestore.New(path, filestore.WithLogger(a.Logger)), nil
	}
}

// Close releases resources in reverse opening order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
