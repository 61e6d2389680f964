package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/internal/bootstrap"
	"github.com/marcelsud/webhook-dispatch/worker"
)

/* worker drains the Redis delivery log: one worker per registered destination.
 * Requires REDIS_ADDR.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	if cfg.RedisAddr == "" {
		fmt.Println("REDIS_ADDR is required to run workers")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, "webhook-worker")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer app.Close(context.Background())

	pool := worker.NewPool(app.Destinations, app.Log, app.Dispatcher,
		worker.WithHeartbeater(app.Log),
		worker.WithLogger(app.Logger),
	)
	if err := pool.Start(ctx); err != nil {
		fmt.Println(err)
		return
	}
	app.Logger.Info().Int("workers", len(pool.Workers())).Msg("worker pool active")

	<-ctx.Done()
	pool.Stop()
	app.Logger.Info().Msg("shutdown complete")
}
