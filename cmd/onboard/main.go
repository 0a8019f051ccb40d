package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/salesonboard/cmd/onboard/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.Execute(ctx, commands.NewRootCmd())
	cancel()
	os.Exit(code)
}
