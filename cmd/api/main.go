package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/internal/bootstrap"
	"github.com/marcelsud/webhook-dispatch/internal/http/chi"
)

const TIMEOUT = 30 * time.Second

/* api is the HTTP entry point: destination management plus sync and async dispatch.
 * main only wires packages together; every failure is printed and ends the process.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, "webhook-api")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer app.Close(context.Background())

	r := chi.Handlers(app.Logger, app.Destinations, app.Dispatcher, app.Exporter.Handler())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	app.Logger.Info().Str("port", cfg.Port).Str("registry", cfg.RegistryBackend).Bool("async", app.Log != nil).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
