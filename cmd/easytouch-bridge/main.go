// cmd/easytouch-bridge/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rvhome/easytouch-bridge/internal/bridge"
	"github.com/rvhome/easytouch-bridge/internal/config"
	"github.com/rvhome/easytouch-bridge/internal/poller"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: easytouch-bridge <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	logger := newLogger(cfg.Bridge.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// MQTT session (shared by all devices)
	// --------------------

	// Filled before Connect below; the on-connect hook re-publishes
	// discovery and re-subscribes after every reconnect.
	var bridges []*bridge.Bridge

	cli := bridge.NewMQTTClient(cfg.Bridge.MQTT, func(c mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Bridge.MQTT.Broker)
		for _, br := range bridges {
			br.PublishDiscovery()
			br.PublishAvailability()
			if err := br.Subscribe(); err != nil {
				logger.Error("subscribe failed", "err", err)
			}
		}
	})

	// --------------------
	// Build per-device pipelines
	// --------------------

	for _, dev := range cfg.Bridge.Devices {

		// ---- poller ----
		p, closePoller, err := poller.Build(dev)
		if err != nil {
			log.Fatalf("poller build failed (device=%s): %v", dev.ID, err)
		}
		defer closePoller()

		// ---- bridge ----
		refresh := make(chan struct{}, 1)
		br := bridge.New(cli, bridge.Options{
			DeviceID:        dev.ID,
			Address:         dev.Address,
			Zones:           dev.Zones,
			TopicPrefix:     cfg.Bridge.MQTT.TopicPrefix,
			DiscoveryPrefix: cfg.Bridge.MQTT.DiscoveryPrefix,
			Log:             logger,
		}, p, refresh)
		bridges = append(bridges, br)

		// ---- channel between poller and bridge ----
		out := make(chan poller.PollResult)

		// Orchestrator: one consumer per device.
		go func(br *bridge.Bridge) {
			for {
				select {
				case <-ctx.Done():
					return
				case res := <-out:
					br.HandleResult(res)
				}
			}
		}(br)

		// poller producer
		go p.Run(ctx, refresh, out)
	}

	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect failed: %v", token.Error())
	}

	logger.Info("bridge running", "devices", len(cfg.Bridge.Devices))

	<-ctx.Done()

	cli.Disconnect(250)
	logger.Info("bridge stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
