package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/routewire/routewire/pkg/engine"
	"github.com/routewire/routewire/pkg/feed"
	"github.com/routewire/routewire/pkg/store"
	"github.com/routewire/routewire/pkg/telemetry"
)

func feedCmd(args []string) {
	var url, configPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				fmt.Println("Error: --config requires a path")
				os.Exit(1)
			}
			configPath = args[i]
		default:
			if strings.HasPrefix(args[i], "--") {
				fmt.Printf("Error: unknown option %s\n", args[i])
				os.Exit(1)
			}
			url = args[i]
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if url == "" {
		url = cfg.Feed.URL
	}
	if url == "" {
		fmt.Println("Error: a feed URL is required (argument or feed.url in config)")
		os.Exit(1)
	}

	var storeOpts []store.Option
	if cfg.Store.SnapshotPath != "" {
		storeOpts = append(storeOpts, store.WithSnapshot(cfg.Store.SnapshotPath))
	}
	st := store.New(storeOpts...)

	var sink telemetry.Sink
	if cfg.Telemetry.SinkURL != "" {
		sink = telemetry.NewHTTPSink(cfg.Telemetry.SinkURL)
	}
	recorder := telemetry.NewRecorder(cfg.Telemetry.Capacity, sink)
	defer recorder.Close()

	caps := &consoleCaps{out: os.Stdout, store: st, choice: engine.ChoiceConfirm}
	ex := engine.New(caps, recorder, engine.Config{
		SupportedVersion: cfg.Protocol.SupportedVersion,
		MaxDepth:         cfg.Protocol.MaxDepth,
		MaxFallbackChain: cfg.Protocol.MaxFallbackChain,
		DefaultTimeout:   time.Duration(cfg.Protocol.DefaultTimeoutMs) * time.Millisecond,
	})

	sub := feed.New(url, ex, feed.Options{
		ReconnectMin: time.Duration(cfg.Feed.ReconnectMinMs) * time.Millisecond,
		ReconnectMax: time.Duration(cfg.Feed.ReconnectMaxMs) * time.Millisecond,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Subscribed to %s (Ctrl+C to stop)\n", url)
	if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
