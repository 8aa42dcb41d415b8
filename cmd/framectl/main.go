package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/framectl/internal/config"
	"github.com/danmuck/framectl/internal/logging"
	"github.com/danmuck/framectl/internal/service"
	"github.com/danmuck/framectl/internal/transport"
)

const defaultConfigPath = "framectl.toml"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "framectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("framectl", flag.ContinueOnError)
	path := fs.String("config", defaultConfigPath, "session config path")
	admin := fs.String("admin", "", "admin listen address (overrides admin_addr)")
	listPorts := fs.Bool("list-ports", false, "list serial ports and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *listPorts {
		ports, err := transport.SerialPorts()
		if err != nil {
			return err
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	}

	logging.ConfigureRuntime()
	file, err := config.Load(*path)
	if err != nil {
		return err
	}
	if *admin != "" {
		file.AdminAddr = *admin
	}

	cfg := service.DefaultConfig()
	cfg.File = file
	svc, err := service.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return svc.Run(ctx)
}
