package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-padlock/internal/app"
	"github.com/goliatone/go-print"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "padlockd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := app.LoadConfig(args)
	if err != nil {
		return err
	}

	logger := app.NewLogger(os.Stdout, cfg.Log)
	logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
