package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/initializer"
)

func main() {
	cfgPath := flag.String("config", "./config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "questfeed:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initializer.Start(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "questfeed:", err)
		os.Exit(1)
	}
}
