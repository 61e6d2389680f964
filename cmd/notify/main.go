package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/internal/bootstrap"
	"github.com/marcelsud/webhook-dispatch/webhook/payload"
)

/* notify - one-shot notification sender
 * Usage: notify <webhook_id> <message>
 * Exit codes: 0 = delivered, 1 = every attempt failed, 2 = usage or lookup error
 */

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: notify <webhook_id> <message>")
		return 2
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, "webhook-notify")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer app.Close(context.Background())

	delivered, err := app.Dispatcher.TriggerNotification(ctx, args[0], payload.NewText(args[1]))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if !delivered {
		fmt.Fprintf(os.Stderr, "notification to %s was not delivered\n", args[0])
		return 1
	}
	fmt.Printf("notification delivered to %s\n", args[0])
	return 0
}
