package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-dispatch/destination/file"
)

/* validate-destinations - Standalone CLI tool to validate destinations.yaml
 * Usage: go run cmd/validate-destinations/main.go [destinations.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	path := "destinations.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	fmt.Printf("Validating destinations file: %s\n", path)
	fmt.Println(strings.Repeat("-", 50))

	dests, err := file.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d destination(s):\n", len(dests))

	for i, d := range dests {
		d = d.Redacted()
		fmt.Printf("\n%d. Destination: %s\n", i+1, d.ID)
		fmt.Printf("   URL:      %s\n", d.URL)
		fmt.Printf("   Channel:  %s\n", d.Channel)
		fmt.Printf("   Active:   %t\n", d.Active)
		fmt.Printf("   Signed:   %t\n", d.Secret != "")

		if d.MaxRetries != nil {
			fmt.Printf("   Max Retries: %d\n", *d.MaxRetries)
		}
		if d.RetryDelay != nil {
			fmt.Printf("   Retry Delay: %s\n", *d.RetryDelay)
		}
		if len(d.SuccessStatusCodes) > 0 {
			fmt.Printf("   Success Status: %v\n", d.SuccessStatusCodes)
		}
		for k := range d.Headers {
			fmt.Printf("   Header: %s\n", k)
		}
	}

	fmt.Printf("\nAll destinations are valid!\n")
}
