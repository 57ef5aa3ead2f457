package main

import (
	"context"
	"os"
	"os/signal"

	"finance-tracker/internal/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
