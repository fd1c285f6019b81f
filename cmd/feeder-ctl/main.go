package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/config"
	"github.com/pojntfx/water-feeder/pkg/logging"
	"github.com/pojntfx/water-feeder/pkg/network"
	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/spf13/pflag"
)

func main() {
	on := pflag.Bool("on", false, "Switch the pump on instead of off")

	cfg, err := config.Parse(config.RoleCtl, pflag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}

	logger := logging.New("feeder-ctl", cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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
		},
		logger,
	)
	defer link.Close()

	if err := link.EnsureConnected(ctx); err != nil {
		panic(err)
	}

	b, err := json.Marshal(mqttapi.PumpCommand{
		Pump: mqttapi.PumpValue(*on),
	})
	if err != nil {
		panic(err)
	}

	topic := mqttapi.NewTopics(cfg.Topics.Prefix, cfg.Topics.DeviceID).Command

	if err := link.Publish(topic, b, false); err != nil {
		panic(err)
	}

	logger.Info().Str("topic", topic).RawJSON("payload", b).Msg("Sent pump command")
}
