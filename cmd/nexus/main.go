package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	ctx := context.Background()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run command", "error", err)
		os.Exit(1)
	}
}
