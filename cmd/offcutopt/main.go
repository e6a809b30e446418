// offcutopt: offcut reuse optimizer for sheet-material cutting
//
// Matches the pieces of a cutting order against the stock of reusable
// offcuts, forecasts the remnants the order leaves behind and reports
// reuse efficiency.
//
// Build:
//   go build -o offcutopt ./cmd/offcutopt
//
// Example:
//   offcutopt run --order order.csv --material MDF --thickness 16 \
//     --inventory ~/.offcutopt/inventory.json --update-inventory

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/OffcutReuse/internal/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
