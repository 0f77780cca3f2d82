// Command revreplace rewrites references to assets in built CSS and JS files
// so that they point at their revisioned names.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Getenv, log.Printf)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
