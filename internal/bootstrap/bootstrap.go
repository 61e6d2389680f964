package bootstrap

/*
* bootstrap wires configuration into the services shared by cmd/api, cmd/worker and cmd/notify.
* Imports go in one direction only: down. Binaries import bootstrap, which imports the
* business packages, which import their storage layers.
 */

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/destination/file"
	"github.com/marcelsud/webhook-dispatch/destination/postgres"
	destredis "github.com/marcelsud/webhook-dispatch/destination/redis"
	"github.com/marcelsud/webhook-dispatch/metrics"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/delivery"
	wbredis "github.com/marcelsud/webhook-dispatch/webhook/redis"
	"github.com/marcelsud/webhook-dispatch/webhook/throttle"
)

type Components struct {
	Logger       zerolog.Logger
	Registry     destination.Repository
	Destinations *destination.Service
	// Log is nil when no Redis address is configured; the async path is then unavailable
	Log        *wbredis.Repository
	Exporter   *metrics.OTelExporter
	Dispatcher *webhook.Service
}

// Build opens the stores selected by cfg and assembles the dispatcher
func Build(ctx context.Context, cfg *config.Config, service string) (*Components, error) {
	c := &Components{Logger: cfg.Logger(service)}

	if cfg.RedisAddr != "" {
		log, err := wbredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("opening delivery log: %w", err)
		}
		c.Log = log
	}

	registry, err := openRegistry(ctx, cfg, c.Log)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	c.Registry = registry
	c.Destinations = destination.NewService(registry)

	var collector metrics.Collector
	if c.Log != nil {
		collector = metrics.NewRedisCollector(c.Log.Client(), c.Destinations)
	}
	c.Exporter, err = metrics.NewOTelExporter(collector)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("creating metrics exporter: %w", err)
	}

	engine := delivery.NewEngine(&http.Client{}, delivery.WithObserver(c.Exporter))
	opts := []webhook.Option{
		webhook.WithDefaults(cfg.DeliveryConfig()),
		webhook.WithLimiter(throttle.New(cfg.RateLimitPerMinute, cfg.RateLimitBurst)),
		webhook.WithRecorder(c.Destinations),
		webhook.WithMetrics(c.Exporter),
		webhook.WithLogger(c.Logger),
		webhook.WithTTL(cfg.DeliveredTTL(), cfg.FailedTTL()),
	}
	if c.Log != nil {
		opts = append(opts, webhook.WithRepository(c.Log))
	}
	c.Dispatcher = webhook.NewService(c.Destinations, engine, opts...)

	return c, nil
}

func openRegistry(ctx context.Context, cfg *config.Config, log *wbredis.Repository) (destination.Repository, error) {
	switch cfg.RegistryBackend {
	case config.BackendFile:
		repo, err := file.NewRepository(cfg.DestinationsFile)
		if err != nil {
			return nil, fmt.Errorf("opening destinations file: %w", err)
		}
		return repo, nil
	case config.BackendRedis:
		if log == nil {
			return nil, fmt.Errorf("redis registry requires REDIS_ADDR")
		}
		return destredis.NewRepositoryFromClient(log.Client()), nil
	case config.BackendPostgres:
		repo, err := postgres.NewRepository(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres registry: %w", err)
		}
		if err := repo.CreateTable(ctx); err != nil {
			repo.Close(ctx)
			return nil, fmt.Errorf("preparing postgres registry: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
}

// Close releases every store; the Redis registry shares the delivery log connection
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Exporter != nil {
		errs = append(errs, c.Exporter.Shutdown(ctx))
	}
	if c.Registry != nil {
		if _, shared := c.Registry.(*destredis.Repository); !shared {
			errs = append(errs, c.Registry.Close(ctx))
		}
	}
	if c.Log != nil {
		errs = append(errs, c.Log.Close(ctx))
	}
	return errors.Join(errs...)
}
