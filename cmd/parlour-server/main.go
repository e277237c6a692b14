package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/hexagrid/parlour/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"parlour.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"host:port to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		if err := cfg.ApplyAddrOverride(CLI.Addr); err != nil {
			fmt.Printf("Invalid configuration: %v\n", err)
			kctx.Exit(1)
		}
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting parlour server",
		"addr", cfg.GetServerAddress(),
		"botDelay", cfg.Game.BotDelay(),
		"codeLength", cfg.Game.RoomCodeLength)

	wsServer := server.NewServer(cfg.GetServerAddress(), logger)
	roomService := server.NewRoomService(wsServer, cfg.Game, quartz.NewReal(), logger)
	wsServer.SetRoomService(roomService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsServer.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		return wsServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}
