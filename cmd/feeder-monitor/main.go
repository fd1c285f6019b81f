package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/config"
	"github.com/pojntfx/water-feeder/pkg/devices"
	"github.com/pojntfx/water-feeder/pkg/history"
	"github.com/pojntfx/water-feeder/pkg/logging"
	"github.com/pojntfx/water-feeder/pkg/network"
	"github.com/pojntfx/water-feeder/pkg/services"
	"github.com/pojntfx/water-feeder/pkg/state"
	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Parse(config.RoleMonitor, pflag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}

	logger := logging.New("feeder-monitor", cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var button devices.Button = devices.NewLineButton(os.Stdin)
	if cfg.Hardware.Backend == config.BackendGPIO && cfg.Hardware.ButtonPin != "" {
		board, err := devices.OpenBoard(devices.BoardConfig{
			ButtonPin: cfg.Hardware.ButtonPin,
		})
		if err != nil {
			panic(err)
		}
		defer board.Close()

		button = devices.NewDigitalButton(board.Adaptor(), cfg.Hardware.ButtonPin, cfg.Hardware.ButtonActiveLow)
	}

	var recorder services.Recorder
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			panic(err)
		}
		defer store.Close()

		recorder = store

		logger.Info().Str("path", cfg.HistoryPath).Msg("Recording snapshots")

		// The view is not restored from history; the retained snapshot arrives on subscribe
		if readings, err := store.Recent(ctx, 1); err != nil {
			logger.Warn().Err(err).Msg("Could not read history")
		} else if len(readings) > 0 {
			logger.Info().
				Int("moisture", readings[0].Moisture).
				Bool("pump", readings[0].PumpOn).
				Time("received_at", readings[0].ReceivedAt).
				Msg("Last recorded snapshot")
		}
	}

	tlsConfig, err := transport.NewTLSConfig(cfg.Broker.CAFile, cfg.Broker.CertFile, cfg.Broker.KeyFile)
	if err != nil {
		panic(err)
	}

	client := mqtt.NewClient(transport.NewClientOptions(
		cfg.Broker.Endpoint,
		cfg.Broker.ThingName,
		tlsConfig,
		cfg.Broker.KeepAlive,
		cfg.Broker.ConnectTimeout,
	))

	link := transport.NewLink(
		client,
		network.NewInterface(cfg.Network.Interface, cfg.Network.PollInterval, logger),
		transport.Options{
			RetryDelay:     cfg.Broker.RetryDelay,
			ConnectTimeout: cfg.Broker.ConnectTimeout,
			QueueSize:      cfg.Topics.QueueSize,
		},
		logger,
	)
	defer link.Close()

	topics := mqttapi.NewTopics(cfg.Topics.Prefix, cfg.Topics.DeviceID)

	monitor := services.NewMonitor(
		state.NewStore(),
		topics,
		link,
		button,
		devices.NewConsoleDisplay(os.Stdout, devices.DefaultGaugeWidth),
		recorder,
		logger,
	)

	if err := services.OpenMonitor(monitor, ctx); err != nil {
		panic(err)
	}

	logger.Info().
		Str("endpoint", cfg.Broker.Endpoint).
		Str("cmd", topics.Command).
		Str("data", topics.Data).
		Msg("Feeder monitor started")

	if err := services.NewControlLoop(link, monitor, cfg.Timing.Tick, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}

	logger.Info().Msg("Shutting down")
}
