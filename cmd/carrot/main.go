// Command carrot is a todo calendar that pays in carrots.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/carrot/internal/cli"
)

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, cli.Env{})
	if ctx.Err() != nil {
		os.Exit(130)
	}
	os.Exit(code)
}
