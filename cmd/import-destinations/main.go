package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/destination/file"
	"github.com/marcelsud/webhook-dispatch/internal/bootstrap"
)

/*
import-destinations - seeds the configured registry from a destinations YAML file

Run with:
  REGISTRY_BACKEND=postgres POSTGRES_URL=... go run cmd/import-destinations/main.go destinations.yaml

Destinations that already exist are left untouched.
*/

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: import-destinations <destinations.yaml>")
		os.Exit(2)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.RegistryBackend == config.BackendFile {
		fmt.Println("REGISTRY_BACKEND=file reads the YAML directly, nothing to import")
		os.Exit(1)
	}

	dests, err := file.Load(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, "webhook-import")
	if err != nil {
		fmt.Printf("Error connecting: %v\n", err)
		os.Exit(1)
	}
	defer app.Close(ctx)

	var imported, skipped int
	for _, d := range dests {
		_, err := app.Destinations.Register(ctx, d)
		switch {
		case errors.Is(err, destination.ErrAlreadyExists):
			skipped++
			fmt.Printf("  = %s already registered\n", d.ID)
		case err != nil:
			fmt.Printf("  x %s: %v\n", d.ID, err)
			app.Close(ctx)
			os.Exit(1)
		default:
			imported++
			fmt.Printf("  + %s\n", d.ID)
			// Register always activates; restore the file's flag
			if !d.Active {
				if err := app.Destinations.SetActive(ctx, d.ID, false); err != nil {
					fmt.Printf("  x %s: %v\n", d.ID, err)
				}
			}
		}
	}

	fmt.Printf("\nImported %d destination(s), skipped %d into %s registry\n", imported, skipped, cfg.RegistryBackend)
}
