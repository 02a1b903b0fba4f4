package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/lineup/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) //nolint:gocritic // exitAfterDefer: nothing left to clean up
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
